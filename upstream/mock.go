package upstream

import "time"

// seededAt is the fixed timestamp the original mock dataset carries.
var seededAt = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

// MockCategories returns the category list used when the backend is unreachable.
func MockCategories() []string {
	return []string{"Livros", "Material Escolar", "Uniformes", "Eletrônicos", "Esportes", "Arte"}
}

// MockProducts returns the embedded product dataset used when the backend is
// unreachable. Product 9 is deliberately out of stock so the sold-out paths
// stay exercisable without a backend.
func MockProducts() []Product {
	return []Product{
		{
			ID:            1,
			Name:          "Matemática - 6º Ano",
			Description:   "Livro didático de matemática para ensino fundamental, com exercícios práticos e teoria completa",
			Price:         89.90,
			Stock:         45,
			Category:      "Livros",
			SKU:           "LIV001",
			ImageFilename: "matematica-6-ano.jpg",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            2,
			Name:          "Kit Cadernos Universitários (5 unidades)",
			Description:   "Conjunto de 5 cadernos universitários de 100 folhas cada, capas variadas",
			Price:         42.90,
			Stock:         67,
			Category:      "Material Escolar",
			SKU:           "MAT001",
			ImageFilename: "kit-cadernos-universitarios.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            3,
			Name:          "Camisa Polo Azul - Tamanho M",
			Description:   "Camisa polo em tecido piquet, cor azul marinho, tamanho médio",
			Price:         65.90,
			Stock:         34,
			Category:      "Uniformes",
			SKU:           "UNI001",
			ImageFilename: "camisa-polo-azul.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            4,
			Name:          "Tablet Educacional 10 polegadas",
			Description:   "Tablet com aplicativos educacionais pré-instalados, ideal para estudos digitais",
			Price:         699.90,
			Stock:         8,
			Category:      "Eletrônicos",
			SKU:           "ELE001",
			ImageFilename: "tablet-educacional.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            5,
			Name:          "Bola de Futebol Oficial",
			Description:   "Bola de futebol oficial size 5, adequada para jogos e treinamentos escolares",
			Price:         89.90,
			Stock:         26,
			Category:      "Esportes",
			SKU:           "ESP001",
			ImageFilename: "bola-futebol-oficial.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            6,
			Name:          "Kit Lápis de Cor (36 cores)",
			Description:   "Conjunto de lápis de cor premium com 36 tonalidades diferentes",
			Price:         78.90,
			Stock:         45,
			Category:      "Arte",
			SKU:           "ART001",
			ImageFilename: "kit-canetas-coloridas.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            7,
			Name:          "Mochila Escolar Grande",
			Description:   "Mochila resistente com compartimento para notebook, várias cores disponíveis",
			Price:         159.90,
			Stock:         24,
			Category:      "Material Escolar",
			SKU:           "MAT003",
			ImageFilename: "mochila-escolar-grande.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            8,
			Name:          "Calculadora Científica",
			Description:   "Calculadora científica com 240 funções, ideal para matemática e física",
			Price:         89.90,
			Stock:         43,
			Category:      "Material Escolar",
			SKU:           "MAT005",
			ImageFilename: "calculadora-cientifica.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            9,
			Name:          "História do Brasil - 9º Ano",
			Description:   "História do Brasil desde o descobrimento até os dias atuais, com mapas e ilustrações",
			Price:         78.90,
			Stock:         0,
			Category:      "Livros",
			SKU:           "LIV003",
			ImageFilename: "historia-brasil-9-ano.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
		{
			ID:            10,
			Name:          "Fones de Ouvido com Microfone",
			Description:   "Headset para aulas online e atividades multimídia, com controle de volume",
			Price:         89.90,
			Stock:         56,
			Category:      "Eletrônicos",
			SKU:           "ELE002",
			ImageFilename: "fones-ouvido-microfone.png",
			CreatedAt:     seededAt,
			UpdatedAt:     seededAt,
		},
	}
}

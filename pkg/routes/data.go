package routes

// defaultRoutes are road distances in km between Brazilian cities.
var defaultRoutes = []Route{
	// Southeast
	{Origin: "São Paulo, SP", Destination: "Rio de Janeiro, RJ", DistanceKm: 430},
	{Origin: "São Paulo, SP", Destination: "Belo Horizonte, MG", DistanceKm: 586},
	{Origin: "São Paulo, SP", Destination: "Campinas, SP", DistanceKm: 95},
	{Origin: "São Paulo, SP", Destination: "Santos, SP", DistanceKm: 72},
	{Origin: "São Paulo, SP", Destination: "Sorocaba, SP", DistanceKm: 100},
	{Origin: "São Paulo, SP", Destination: "São José dos Campos, SP", DistanceKm: 94},
	{Origin: "São Paulo, SP", Destination: "Ribeirão Preto, SP", DistanceKm: 313},
	{Origin: "São Paulo, SP", Destination: "Vitória, ES", DistanceKm: 882},
	{Origin: "Rio de Janeiro, RJ", Destination: "Belo Horizonte, MG", DistanceKm: 434},
	{Origin: "Rio de Janeiro, RJ", Destination: "Niterói, RJ", DistanceKm: 13},
	{Origin: "Rio de Janeiro, RJ", Destination: "Petrópolis, RJ", DistanceKm: 68},
	{Origin: "Rio de Janeiro, RJ", Destination: "Vitória, ES", DistanceKm: 521},
	{Origin: "Belo Horizonte, MG", Destination: "Vitória, ES", DistanceKm: 524},
	{Origin: "Belo Horizonte, MG", Destination: "Uberlândia, MG", DistanceKm: 537},
	{Origin: "Campinas, SP", Destination: "Ribeirão Preto, SP", DistanceKm: 224},

	// South
	{Origin: "São Paulo, SP", Destination: "Curitiba, PR", DistanceKm: 408},
	{Origin: "Curitiba, PR", Destination: "Florianópolis, SC", DistanceKm: 300},
	{Origin: "Curitiba, PR", Destination: "Londrina, PR", DistanceKm: 381},
	{Origin: "Florianópolis, SC", Destination: "Porto Alegre, RS", DistanceKm: 476},
	{Origin: "Florianópolis, SC", Destination: "Joinville, SC", DistanceKm: 180},
	{Origin: "Porto Alegre, RS", Destination: "Caxias do Sul, RS", DistanceKm: 128},
	{Origin: "Porto Alegre, RS", Destination: "Curitiba, PR", DistanceKm: 711},

	// Center-West
	{Origin: "Brasília, DF", Destination: "Goiânia, GO", DistanceKm: 209},
	{Origin: "Brasília, DF", Destination: "Belo Horizonte, MG", DistanceKm: 716},
	{Origin: "Brasília, DF", Destination: "São Paulo, SP", DistanceKm: 1015},
	{Origin: "Goiânia, GO", Destination: "Uberlândia, MG", DistanceKm: 340},
	{Origin: "Campo Grande, MS", Destination: "Cuiabá, MT", DistanceKm: 694},

	// Northeast
	{Origin: "Salvador, BA", Destination: "Aracaju, SE", DistanceKm: 356},
	{Origin: "Salvador, BA", Destination: "Feira de Santana, BA", DistanceKm: 108},
	{Origin: "Recife, PE", Destination: "João Pessoa, PB", DistanceKm: 120},
	{Origin: "Recife, PE", Destination: "Maceió, AL", DistanceKm: 285},
	{Origin: "Fortaleza, CE", Destination: "Natal, RN", DistanceKm: 537},
	{Origin: "Natal, RN", Destination: "João Pessoa, PB", DistanceKm: 185},
	{Origin: "São Luís, MA", Destination: "Teresina, PI", DistanceKm: 446},

	// North
	{Origin: "Belém, PA", Destination: "São Luís, MA", DistanceKm: 806},
	{Origin: "Manaus, AM", Destination: "Boa Vista, RR", DistanceKm: 785},
}

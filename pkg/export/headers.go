package export

// Letterheads for the two issuing entities. Requisitions carry the profile
// they were created under so re-rendering stays stable over time.
var Headers = map[string]CompanyHeader{
	"A": {
		Name:    "Obratech Construcoes Ltda",
		Address: "Av. das Torres, 1200 - Sala 301",
		TaxID:   "CNPJ 12.345.678/0001-90",
		Phone:   "+55 92 3234-1200",
		Email:   "compras@obratech.com.br",
		City:    "Manaus",
	},
	"B": {
		Name:    "Obratech Engenharia e Servicos",
		Address: "Rua Rio Javari, 88",
		TaxID:   "CNPJ 98.765.432/0001-10",
		Phone:   "+55 92 3234-1388",
		Email:   "suprimentos@obratech.com.br",
		City:    "Manaus",
	},
}

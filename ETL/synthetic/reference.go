package synthetic

// Справочники генератора. Порядок элементов фиксирован, от него зависит воспроизводимость.

var shipModes = []string{"First Class", "Same Day", "Second Class", "Standard Class"}

var segments = []string{"Consumer", "Corporate", "Home Office"}

type city struct {
	Name      string
	State     string
	ZipPrefix string
	Region    string
}

var usCities = []city{
	{"New York", "New York", "100", "East"},
	{"Los Angeles", "California", "900", "West"},
	{"Chicago", "Illinois", "606", "Central"},
	{"Houston", "Texas", "770", "Central"},
	{"Phoenix", "Arizona", "850", "West"},
	{"Philadelphia", "Pennsylvania", "191", "East"},
	{"San Antonio", "Texas", "782", "Central"},
	{"San Diego", "California", "921", "West"},
	{"Dallas", "Texas", "752", "Central"},
	{"San Jose", "California", "951", "West"},
	{"Austin", "Texas", "787", "Central"},
	{"Jacksonville", "Florida", "322", "South"},
	{"Fort Worth", "Texas", "761", "Central"},
	{"Columbus", "Ohio", "432", "East"},
	{"Charlotte", "North Carolina", "282", "South"},
	{"Indianapolis", "Indiana", "462", "Central"},
	{"Seattle", "Washington", "981", "West"},
	{"Denver", "Colorado", "802", "West"},
	{"Boston", "Massachusetts", "021", "East"},
	{"Nashville", "Tennessee", "372", "South"},
	{"Detroit", "Michigan", "482", "Central"},
	{"Portland", "Oregon", "972", "West"},
	{"Las Vegas", "Nevada", "891", "West"},
	{"Miami", "Florida", "331", "South"},
	{"Atlanta", "Georgia", "303", "South"},
}

type category struct {
	Name          string
	SubCategories []string
}

var categories = []category{
	{"Furniture", []string{"Bookcases", "Chairs", "Furnishings", "Tables"}},
	{"Office Supplies", []string{"Appliances", "Art", "Binders", "Envelopes", "Fasteners", "Labels", "Paper", "Storage", "Supplies"}},
	{"Technology", []string{"Accessories", "Copiers", "Machines", "Phones"}},
}

// Нули повторяются, чтобы большая часть строк шла без скидки
var discounts = []float64{0, 0, 0, 0.1, 0.2, 0.3, 0.4, 0.5}

const (
	country     = "United States"
	minQuantity = 1
	maxQuantity = 10
	minPrice    = 5.0
	maxPrice    = 1000.0
)

// fallbackProducts имена товаров, когда в исходных данных их нет
func fallbackProducts() []string {
	var products []string
	for _, c := range categories {
		for _, sub := range c.SubCategories {
			products = append(products, c.Name+" - "+sub)
		}
	}
	return products
}

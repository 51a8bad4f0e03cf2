package domain

// OrderBook contiene las escaleras de precio-tamaño de ambos lados del mercado.
type OrderBook struct {
	YesBids []BookLevel // ordenados mayor a menor precio
	YesAsks []BookLevel // ordenados menor a mayor precio
	NoBids  []BookLevel
	NoAsks  []BookLevel
}

// BookLevel es un nivel de precio en el orderbook.
type BookLevel struct {
	Price int // centavos, 1-99
	Size  int // contratos
}

// YesBidVolume devuelve el volumen total de bids YES en contratos.
func (ob OrderBook) YesBidVolume() int {
	return levelVolume(ob.YesBids)
}

// YesAskVolume devuelve el volumen total de asks YES en contratos.
func (ob OrderBook) YesAskVolume() int {
	return levelVolume(ob.YesAsks)
}

// IsEmpty devuelve true si no hay niveles en ningún lado YES.
func (ob OrderBook) IsEmpty() bool {
	return len(ob.YesBids) == 0 && len(ob.YesAsks) == 0
}

func levelVolume(levels []BookLevel) int {
	total := 0
	for _, l := range levels {
		total += l.Size
	}
	return total
}

package kalshi

// DTOs del wire format de trade-api/v2. Solo los campos que se usan.

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type marketsResponse struct {
	Markets []marketDTO `json:"markets"`
	Cursor  string      `json:"cursor"`
}

type marketResponse struct {
	Market marketDTO `json:"market"`
}

type marketDTO struct {
	Ticker    string  `json:"ticker"`
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	YesBid    int     `json:"yes_bid"`
	YesAsk    int     `json:"yes_ask"`
	NoBid     int     `json:"no_bid"`
	NoAsk     int     `json:"no_ask"`
	Volume    float64 `json:"volume"`
	CloseTime string  `json:"close_time"` // RFC 3339
}

type orderBookResponse struct {
	YesBids []bookLevelDTO `json:"yes_bids"`
	YesAsks []bookLevelDTO `json:"yes_asks"`
	NoBids  []bookLevelDTO `json:"no_bids"`
	NoAsks  []bookLevelDTO `json:"no_asks"`
}

type bookLevelDTO struct {
	Price int `json:"price"`
	Size  int `json:"size"`
}

type historyResponse struct {
	History []historyPointDTO `json:"history"`
}

type historyPointDTO struct {
	YesPrice int    `json:"yes_price"`
	Volume   int    `json:"volume"`
	Time     string `json:"time"`
}

type tradesResponse struct {
	Trades []tradeDTO `json:"trades"`
}

type tradeDTO struct {
	Side  string `json:"side"` // buy | sell
	Type  string `json:"type"` // yes | no
	Count int    `json:"count"`
	Time  string `json:"time"`
}

type orderRequestDTO struct {
	Ticker      string `json:"ticker"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	Price       int    `json:"price"`
	Size        int    `json:"size"`
	TimeInForce string `json:"time_in_force"`
}

type orderResponseDTO struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

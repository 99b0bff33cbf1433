package polymarket

// Raw DTOs from the Polymarket API, used only inside this package.
// Conversion to domain entities happens in mapping.go.

// marketsResponse is the paginated response of GET /markets.
type marketsResponse struct {
	Limit      int          `json:"limit"`
	Count      int          `json:"count"`
	NextCursor string       `json:"next_cursor"`
	Data       []clobMarket `json:"data"`
}

// clobMarket is a market as listed by the CLOB.
type clobMarket struct {
	ConditionID string      `json:"condition_id"`
	QuestionID  string      `json:"question_id"`
	Question    string      `json:"question"`
	Tokens      []clobToken `json:"tokens"`
	Active      bool        `json:"active"`
	Closed      bool        `json:"closed"`
}

// clobToken is one outcome token of a market.
type clobToken struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
}

// orderBookRequest is one item of the POST /books batch body.
type orderBookRequest struct {
	TokenID string `json:"token_id"`
}

// orderBookResponse is one book in the POST /books response.
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw is a raw price level (the API sends strings).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

package model

// LogRecord is the normalized form of a chain log printed by the events command.
type LogRecord struct {
	ChainID     uint64            `json:"chain_id"`
	BlockNumber uint64            `json:"block_number"`
	BlockHash   string            `json:"block_hash"`
	TxHash      string            `json:"tx_hash"`
	TxIndex     uint64            `json:"tx_index"`
	LogIndex    uint64            `json:"log_index"`
	Address     string            `json:"address"`
	Topics      []string          `json:"topics"`
	Data        string            `json:"data"`
	Removed     bool              `json:"removed"`
	Event       string            `json:"event,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

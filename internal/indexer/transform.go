package indexer

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"ovmscope/internal/model"
)

// EventDescriber names a known event and renders its decoded fields.
type EventDescriber func(log types.Log) (name string, fields map[string]string, ok bool)

// BuildLogRecord flattens log into its printable form. When describe recognizes
// the log, its event name and decoded fields are attached; describe may be nil.
func BuildLogRecord(chainID uint64, log types.Log, describe EventDescriber) model.LogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	record := model.LogRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
	}
	if describe != nil {
		if name, fields, ok := describe(log); ok {
			record.Event = name
			record.Fields = fields
		}
	}
	return record
}

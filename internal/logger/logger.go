package logger

import (
	"go-docbridge/internal/config"
	"go-docbridge/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the process logger: a console/JSON base core wrapped so
// every entry is also queued to the async database writer.
func NewLogger(cfg *config.Config, db *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(db, cfg)

	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()), nil
}

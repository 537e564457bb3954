package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"ExoVista/internal/domain/models"
	pkgkafka "ExoVista/pkg/kafka"
	applogger "ExoVista/pkg/logger"
)

// observationMessage is the payload expected on the observation topic.
type observationMessage struct {
	models.Observation
	Mode string  `json:"mode"`
	Seed *uint64 `json:"seed,omitempty"`
}

// ObservationHandler classifies observations consumed from Kafka and publishes the reports.
type ObservationHandler struct {
	topic string
	uc    *DispositionUseCase
	log   *applogger.Logger
}

func NewObservationHandler(topic string, uc *DispositionUseCase, log *applogger.Logger) *ObservationHandler {
	if log == nil {
		log = applogger.Nop()
	}
	return &ObservationHandler{topic: topic, uc: uc, log: log}
}

func (h *ObservationHandler) Topic() string { return h.topic }

// Handle drops malformed and invalid observations (retrying cannot fix them) and
// returns publish errors so the consumer retries and finally dead-letters them.
func (h *ObservationHandler) Handle(ctx context.Context, b []byte) error {
	var m observationMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.uc.recordError("consumer_unmarshal")
		h.log.Warn("drop malformed observation", applogger.String("trace_id", pkgkafka.TraceID(ctx)), applogger.Error(err))
		return nil
	}
	mode := models.InputMode(m.Mode)
	if mode == "" {
		mode = models.ModeFile
	}
	env, err := h.uc.Process(m.Observation, mode, m.Seed, SourceKafka)
	if err != nil {
		h.log.Warn("drop invalid observation", applogger.String("trace_id", pkgkafka.TraceID(ctx)), applogger.Error(err))
		return nil
	}
	if err := h.uc.Publish(ctx, env); err != nil {
		return fmt.Errorf("handle observation: %w", err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*ObservationHandler)(nil)

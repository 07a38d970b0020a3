package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/config"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	r := domain.Report{
		ID:           3,
		Type:         "Buraco na via",
		Neighborhood: "Centro",
		ReporterName: "Ana",
		Description:  "Buraco grande",
		Geo:          &domain.Geo{Lat: -5.199, Lon: -39.2927},
		Visible:      true,
		GeoSource:    domain.GeoSourceOriginal,
	}

	msg, err := serializeToMessage("fiscaliza.csv", r, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("fiscaliza.csv#3"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"Buraco na via"`)
	assert.Contains(t, string(msg.Value), `"source":"fiscaliza.csv"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "report_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("Buraco na via"), msg.Headers[0].Value)
	assert.Equal(t, "neighborhood", msg.Headers[1].Key)
	assert.Equal(t, []byte("Centro"), msg.Headers[1].Value)
	assert.Equal(t, "loaded_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublishSnapshot_EmptyIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaSinkTopic: "unused"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	err := w.PublishSnapshot(context.Background(), domain.Snapshot{Source: "fiscaliza.csv"})
	assert.NoError(t, err)
}

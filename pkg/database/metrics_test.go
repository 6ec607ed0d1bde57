package database

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type nilStats struct{}

func (nilStats) Stat() *pgxpool.Stat { return nil }

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(nilStats{}, "cart-api")

	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var descs []string
	for d := range ch {
		descs = append(descs, d.String())
	}
	assert.Len(t, descs, 8)
	assert.Contains(t, descs[0], "rocketshoes_db_pool_acquired_connections")
}

func TestPoolStatsCollector_CollectWithoutStats(t *testing.T) {
	c := NewPoolStatsCollector(nilStats{}, "cart-api")

	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	assert.Empty(t, ch)
}

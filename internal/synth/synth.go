package synth

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
)

var sensorNames = []string{"acc_x", "acc_y", "acc_z", "gyro_x", "gyro_y", "gyro_z"}

// Config describes a synthetic activity dataset.
type Config struct {
	Sessions       int
	RowsPerSession int
	Labels         []string
	Sensors        int
	Noise          float64 // std-dev of gaussian noise added to every reading
	Seed           int64
	SessionColumn  string
	TargetColumn   string
}

// DefaultConfig is 10 sessions of 100 rows with two activities.
func DefaultConfig() Config {
	return Config{
		Sessions:       10,
		RowsPerSession: 100,
		Labels:         []string{"walking", "sitting"},
		Sensors:        3,
		Noise:          0.2,
		Seed:           1,
		SessionColumn:  "Experiment",
		TargetColumn:   "Activity",
	}
}

// Generate builds the table. Each session is cut into one contiguous block
// per label; the block order rotates from session to session. Label i shifts
// every sensor by i and oscillates at its own frequency, so labels are
// separable from window statistics.
func Generate(cfg Config) (*dataset.Table, error) {
	if cfg.Sessions <= 0 || cfg.RowsPerSession <= 0 || cfg.Sensors <= 0 || len(cfg.Labels) == 0 {
		return nil, fmt.Errorf("%w: sessions, rows, sensors and labels must be positive", apperr.ErrConfig)
	}
	if cfg.SessionColumn == "" || cfg.TargetColumn == "" {
		return nil, fmt.Errorf("%w: session and target column names are required", apperr.ErrConfig)
	}

	cols := []string{cfg.SessionColumn, cfg.TargetColumn}
	for i := 0; i < cfg.Sensors; i++ {
		if i < len(sensorNames) {
			cols = append(cols, sensorNames[i])
		} else {
			cols = append(cols, fmt.Sprintf("sensor_%d", i))
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	nl := len(cfg.Labels)
	block := (cfg.RowsPerSession + nl - 1) / nl
	rows := make([][]string, 0, cfg.Sessions*cfg.RowsPerSession)
	for s := 0; s < cfg.Sessions; s++ {
		id := strconv.Itoa(s + 1)
		for r := 0; r < cfg.RowsPerSession; r++ {
			li := (r/block + s) % nl
			row := make([]string, 0, len(cols))
			row = append(row, id, cfg.Labels[li])
			for k := 0; k < cfg.Sensors; k++ {
				v := float64(li) + 0.3*math.Sin(float64(r)*float64(li+1)*0.2+float64(k)) + rng.NormFloat64()*cfg.Noise
				row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
			}
			rows = append(rows, row)
		}
	}
	return dataset.NewTable(cols, rows)
}

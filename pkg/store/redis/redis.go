package links

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nfvri/ran-propagation/pkg/propagation"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const linkMatrixSuffix = "-LinkMatrix"

// Store persists link matrix snapshots
type Store interface {
	AddLinkMatrix(ctx context.Context, snapshotId string, matrix LinkMatrix) error
	GetLinkMatrix(ctx context.Context, snapshotId string) (LinkMatrix, error)
	DeleteLinkMatrix(ctx context.Context, snapshotId string) (LinkMatrix, error)
}

// LinkRecord is the stored form of a link result. Links without signal have NoSignal set
// and zero loss and power.
type LinkRecord struct {
	TxID             string  `json:"tx"`
	RxID             string  `json:"rx"`
	DistanceM        float64 `json:"distance"`
	FrequencyMHz     float64 `json:"frequency"`
	Model            string  `json:"model"`
	LineOfSight      bool    `json:"los"`
	PathLossDB       float64 `json:"pathLoss"`
	ReceivedPowerDbm float64 `json:"rxPower"`
	NoSignal         bool    `json:"noSignal,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// LinkMatrix is a snapshot of every evaluated link of a scenario
type LinkMatrix struct {
	Scenario  string       `json:"scenario"`
	CreatedAt time.Time    `json:"createdAt"`
	Links     []LinkRecord `json:"links"`
}

// NewLinkMatrix converts link results into a snapshot
func NewLinkMatrix(scenario string, results []propagation.LinkResult) LinkMatrix {
	matrix := LinkMatrix{Scenario: scenario, CreatedAt: time.Now().UTC(), Links: make([]LinkRecord, 0, len(results))}
	for _, r := range results {
		record := LinkRecord{
			TxID:         r.TxID,
			RxID:         r.RxID,
			DistanceM:    r.DistanceM,
			FrequencyMHz: r.FrequencyMHz,
			Model:        r.Model,
			LineOfSight:  r.LineOfSight,
		}
		switch {
		case r.Err != nil:
			record.Error = r.Err.Error()
		case math.IsInf(r.PathLossDB, 0) || math.IsNaN(r.PathLossDB):
			record.NoSignal = true
		default:
			record.PathLossDB = r.PathLossDB
			record.ReceivedPowerDbm = r.ReceivedPowerDbm
		}
		matrix.Links = append(matrix.Links, record)
	}
	return matrix
}

// Results converts the snapshot back into link results
func (m LinkMatrix) Results() []propagation.LinkResult {
	results := make([]propagation.LinkResult, 0, len(m.Links))
	for _, l := range m.Links {
		r := propagation.LinkResult{
			TxID:             l.TxID,
			RxID:             l.RxID,
			DistanceM:        l.DistanceM,
			FrequencyMHz:     l.FrequencyMHz,
			Model:            l.Model,
			LineOfSight:      l.LineOfSight,
			PathLossDB:       l.PathLossDB,
			ReceivedPowerDbm: l.ReceivedPowerDbm,
		}
		if l.NoSignal {
			r.PathLossDB = math.Inf(1)
			r.ReceivedPowerDbm = math.Inf(-1)
		}
		if l.Error != "" {
			r.Err = fmt.Errorf("%s", l.Error)
		}
		results = append(results, r)
	}
	return results
}

type RedisStore struct {
	LinkDB *redis.Client
}

// InitClient connects to redis, retrying the initial ping with exponential backoff
func InitClient(ctx context.Context, redisHost, redisPort, db, username, password string, maxRetries uint64) (*redis.Client, error) {
	database, err := strconv.Atoi(db)
	if err != nil {
		return nil, errors.NewInvalid("invalid redis database %q: %v", db, err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisHost, redisPort),
		Username: username,
		Password: password,
		DB:       database,
	})

	ping := func() error {
		return client.Ping(ctx).Err()
	}
	notify := func(err error, next time.Duration) {
		log.Warnf("redis at %s:%s not ready, retrying in %v: %v", redisHost, redisPort, next, err)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s:%s: %v", redisHost, redisPort, err)
	}
	return client, nil
}

func (s *RedisStore) AddLinkMatrix(ctx context.Context, snapshotId string, matrix LinkMatrix) error {
	matrixBytes, err := json.Marshal(matrix)
	if err != nil {
		return fmt.Errorf("failed to marshal link matrix: %v ", err)
	}

	return s.LinkDB.Set(ctx, snapshotId+linkMatrixSuffix, matrixBytes, time.Duration(0)).Err()
}

func (s *RedisStore) GetLinkMatrix(ctx context.Context, snapshotId string) (LinkMatrix, error) {
	matrixBytes, err := s.LinkDB.Get(ctx, snapshotId+linkMatrixSuffix).Result()
	if err == redis.Nil || (err == nil && len(matrixBytes) == 0) {
		return LinkMatrix{}, errors.NewNotFound("link matrix for snapshot id %s does not exist", snapshotId)
	}
	if err != nil {
		return LinkMatrix{}, fmt.Errorf("error fetching link matrix for snapshot id %s: %v", snapshotId, err)
	}

	matrix := LinkMatrix{}
	if err := json.Unmarshal([]byte(matrixBytes), &matrix); err != nil {
		return LinkMatrix{}, fmt.Errorf("failed to unmarshal link matrix: %v ", err)
	}
	return matrix, nil
}

func (s *RedisStore) DeleteLinkMatrix(ctx context.Context, snapshotId string) (LinkMatrix, error) {
	matrix, err := s.GetLinkMatrix(ctx, snapshotId)
	if err != nil {
		return LinkMatrix{}, err
	}

	err = s.LinkDB.Del(ctx, snapshotId+linkMatrixSuffix).Err()
	return matrix, err
}

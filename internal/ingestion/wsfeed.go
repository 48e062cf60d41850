package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSFeedConfig holds WebSocket feed tuning.
type WSFeedConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	ReadTimeout       time.Duration
	HandshakeTimeout  time.Duration
}

// DefaultWSFeedConfig returns production defaults.
func DefaultWSFeedConfig() WSFeedConfig {
	return WSFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// wsPairMessage is the wire format pushed by pair feed providers.
type wsPairMessage struct {
	Pairs []struct {
		Network       string  `json:"network"`
		Address       string  `json:"address"`
		Symbol        string  `json:"symbol"`
		PriceUSD      float64 `json:"price_usd"`
		Change1h      float64 `json:"change_1h"`
		Change24h     float64 `json:"change_24h"`
		Volume1h      float64 `json:"volume_1h"`
		Volume24h     float64 `json:"volume_24h"`
		LiquidityUSD  float64 `json:"liquidity_usd"`
		MarketCap     float64 `json:"market_cap"`
		PairCreatedAt int64   `json:"pair_created_at"`
	} `json:"pairs"`
}

// WSPairSource is a PairSource fed by a WebSocket push stream.
// A background reader accumulates pushed pairs; Fetch drains whatever
// arrived since the previous call. The reader reconnects with
// exponential backoff and stays quiet between pushes.
type WSPairSource struct {
	name     string
	endpoint string
	config   WSFeedConfig
	log      *logrus.Entry

	mu      sync.Mutex
	pending []RawPair

	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWSPairSource connects to the endpoint and starts the read loop.
func NewWSPairSource(ctx context.Context, name, endpoint string, config WSFeedConfig, log *logrus.Entry) (*WSPairSource, error) {
	s := &WSPairSource{
		name:     name,
		endpoint: endpoint,
		config:   config,
		log:      log.WithField("feed", name),
		done:     make(chan struct{}),
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop(conn)

	return s, nil
}

// Name identifies the source in logs and metrics.
func (s *WSPairSource) Name() string {
	return s.name
}

// Fetch drains the pairs accumulated since the previous call.
func (s *WSPairSource) Fetch(_ context.Context) ([]RawPair, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("feed %s closed", s.name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.pending
	s.pending = nil
	return batch, nil
}

// Close stops the read loop and closes the connection.
func (s *WSPairSource) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}
	close(s.done)
	s.wg.Wait()
	return nil
}

func (s *WSPairSource) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", s.endpoint, err)
	}
	return conn, nil
}

// readLoop reads pushed messages until shutdown, reconnecting with
// exponential backoff on read failures.
func (s *WSPairSource) readLoop(conn *websocket.Conn) {
	defer s.wg.Done()
	defer func() {
		if conn != nil {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		}
	}()

	delay := s.config.ReconnectDelay
	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			conn = nil

			// Reconnect with backoff until shutdown
			for {
				select {
				case <-s.done:
					return
				case <-time.After(delay):
				}

				s.log.WithField("delay", delay).Warn("reconnecting pair feed")
				newConn, dialErr := s.dial(context.Background())
				if dialErr == nil {
					conn = newConn
					delay = s.config.ReconnectDelay
					break
				}
				delay *= 2
				if delay > s.config.MaxReconnectDelay {
					delay = s.config.MaxReconnectDelay
				}
			}
			continue
		}

		var msg wsPairMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.WithError(err).Debug("dropping malformed feed message")
			continue
		}

		if len(msg.Pairs) == 0 {
			continue
		}

		batch := make([]RawPair, 0, len(msg.Pairs))
		for _, p := range msg.Pairs {
			batch = append(batch, RawPair{
				Network:       p.Network,
				Address:       p.Address,
				Symbol:        p.Symbol,
				PriceUSD:      p.PriceUSD,
				Change1h:      p.Change1h,
				Change24h:     p.Change24h,
				Volume1h:      p.Volume1h,
				Volume24h:     p.Volume24h,
				LiquidityUSD:  p.LiquidityUSD,
				MarketCap:     p.MarketCap,
				PairCreatedAt: p.PairCreatedAt,
			})
		}

		s.mu.Lock()
		s.pending = append(s.pending, batch...)
		s.mu.Unlock()
	}
}

// Verify interface compliance at compile time.
var _ PairSource = (*WSPairSource)(nil)

package natsbus

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/metrics"
)

// Conn - часть *nats.Conn, нужная для публикации
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher публикует команды рендера сессий в NATS
type Publisher struct {
	conn    Conn
	nc      *nats.Conn
	prefix  string
	metrics *metrics.Collector
	logger  *zap.Logger
}

// Connect подключается к NATS по настройкам конфигурации
func Connect(cfg *config.NATSConfig, m *metrics.Collector, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("route-planner"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("NATS connected", zap.String("url", cfg.URL))

	p := NewPublisher(nc, cfg.SubjectPrefix, m, logger)
	p.nc = nc
	return p, nil
}

// NewPublisher оборачивает готовое соединение (в тестах - фейк)
func NewPublisher(conn Conn, prefix string, m *metrics.Collector, logger *zap.Logger) *Publisher {
	if prefix == "" {
		prefix = "flythrough"
	}
	return &Publisher{
		conn:    conn,
		prefix:  prefix,
		metrics: m,
		logger:  logger,
	}
}

// Close дренирует соединение
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// Health проверяет состояние соединения
func (p *Publisher) Health() error {
	if p.nc != nil && !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected: %s", p.nc.Status())
	}
	return nil
}

// Subject - шаблон темы сессии: клиенты подписываются на "<prefix>.<session>.>"
func (p *Publisher) Subject(sessionID string) string {
	return fmt.Sprintf("%s.%s.>", p.prefix, subjectToken(sessionID))
}

// Wrap возвращает рендер, дублирующий каждое изменение base в тему сессии
func (p *Publisher) Wrap(sessionID string, base repository.MapRenderer) repository.MapRenderer {
	return &Renderer{
		base:      base,
		publisher: p,
		subject:   fmt.Sprintf("%s.%s", p.prefix, subjectToken(sessionID)),
		logger:    p.logger.With(zap.String("session_id", sessionID)),
	}
}

func (p *Publisher) publish(subject string, data []byte) error {
	start := time.Now()
	err := p.conn.Publish(subject, data)
	if err != nil {
		p.metrics.RenderPublishErrInc()
		return err
	}
	p.metrics.RenderPublishedInc()
	if d := time.Since(start); d > 50*time.Millisecond {
		p.logger.Debug("slow NATS publish", zap.String("subject", subject), zap.Duration("took", d))
	}
	return nil
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

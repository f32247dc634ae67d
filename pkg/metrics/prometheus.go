package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Prometheus collects per-request HTTP metrics and serves them on a
// dedicated listener, so the metrics port can stay off the public ingress.
type Prometheus struct {
	reqCnt     *prometheus.CounterVec
	reqDur     *prometheus.HistogramVec
	registry   *prometheus.Registry
	listenAddr string
	urlLabelFn func(c *gin.Context) string
	log        *zap.SugaredLogger
}

type NewPrometheusOptions struct {
	// ReqCntURLLabelMappingFn maps a request to the url label. Use the gin
	// route template here, not the raw path, to keep cardinality bounded.
	ReqCntURLLabelMappingFn func(c *gin.Context) string
	Logger                  *zap.SugaredLogger
}

func NewPrometheus(opts NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		registry:   prometheus.NewRegistry(),
		urlLabelFn: opts.ReqCntURLLabelMappingFn,
		log:        opts.Logger,
	}
	if p.urlLabelFn == nil {
		p.urlLabelFn = func(c *gin.Context) string { return c.Request.URL.Path }
	}

	p.reqCnt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "req_total",
			Help: "How many HTTP requests processed, partitioned by status code, method and url.",
		},
		[]string{"code", "method", "url"},
	)
	p.reqDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "req_dur_ms",
			Help: "The HTTP request latencies in milliseconds.",
		},
		[]string{"code", "method", "url"},
	)
	p.registry.MustRegister(p.reqCnt, p.reqDur)
	return p
}

func (p *Prometheus) SetListenAddress(addr string) {
	p.listenAddr = addr
}

// Use attaches the middleware to the engine and, when a listen address is
// set, starts the metrics endpoint on it.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.handlerFunc())
	if p.listenAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(p.listenAddr, mux); err != nil && p.log != nil {
			p.log.Errorw("metrics listener stopped", "addr", p.listenAddr, "err", err)
		}
	}()
}

func (p *Prometheus) handlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		code := strconv.Itoa(c.Writer.Status())
		url := p.urlLabelFn(c)
		p.reqCnt.WithLabelValues(code, c.Request.Method, url).Inc()
		p.reqDur.WithLabelValues(code, c.Request.Method, url).
			Observe(float64(time.Since(start).Milliseconds()))
	}
}

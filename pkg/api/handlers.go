package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"StockSeed/pkg/database"
	"StockSeed/pkg/importer"
	"StockSeed/pkg/model"
	"StockSeed/pkg/monitor"
	"StockSeed/pkg/strategy"
)

// 默认均线窗口
const (
	defaultShortWindow = 20
	defaultLongWindow  = 50
)

// ImporterComponent 导入结果在监控中的组件名
const ImporterComponent = "importer"

// BarStore API使用的K线存储
type BarStore interface {
	ExistsByDatetime(ctx context.Context, datetime time.Time) (bool, error)
	Create(ctx context.Context, bar *model.StockBar) error
	GetByDatetime(ctx context.Context, datetime time.Time) (*model.StockBar, error)
	List(ctx context.Context, filter database.BarFilter) ([]*model.StockBar, error)
	Count(ctx context.Context, filter database.BarFilter) (int64, error)
}

// Handlers API处理程序
type Handlers struct {
	store             BarStore
	monitor           *monitor.Monitor
	defaultInstrument string

	mu         sync.RWMutex
	lastImport *importer.Report
}

// NewHandlers 创建新的API处理程序
func NewHandlers(store BarStore, monitor *monitor.Monitor, defaultInstrument string) *Handlers {
	return &Handlers{
		store:             store,
		monitor:           monitor,
		defaultInstrument: defaultInstrument,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查，依赖组件全部健康时返回200
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	if h.monitor == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if !h.monitor.Check(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": h.monitor.GetAllStatus(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": h.monitor.GetAllStatus(),
	})
}

// ListBars 查询K线数据
func (h *Handlers) ListBars(c *gin.Context) {
	filter := database.BarFilter{Instrument: c.Query("instrument")}

	for _, q := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		t, err := importer.ParseDatetime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("%s参数无效: %v", q.name, err),
			})
			return
		}
		*q.dst = t
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit参数无效: " + raw,
			})
			return
		}
		filter.Limit = limit
	}

	ctx := c.Request.Context()
	bars, err := h.store.List(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询K线数据失败: " + err.Error(),
		})
		return
	}
	total, err := h.store.Count(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  bars,
		"total": total,
	})
}

// GetBar 按时间戳查询单条K线
func (h *Handlers) GetBar(c *gin.Context) {
	datetime, err := importer.ParseDatetime(c.Param("datetime"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "datetime参数无效: " + err.Error(),
		})
		return
	}

	bar, err := h.store.GetByDatetime(c.Request.Context(), datetime)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("No stock data found for datetime %s", datetime.Format(time.RFC3339)),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, bar)
}

// CreateBarRequest 新增K线请求
type CreateBarRequest struct {
	Datetime   string   `json:"datetime" binding:"required"`
	Open       *float64 `json:"open" binding:"required"`
	High       *float64 `json:"high" binding:"required"`
	Low        *float64 `json:"low" binding:"required"`
	Close      *float64 `json:"close" binding:"required"`
	Volume     *int64   `json:"volume" binding:"required"`
	Instrument string   `json:"instrument"`
}

// CreateBar 新增一条K线，时间戳已存在时返回400
func (h *Handlers) CreateBar(c *gin.Context) {
	var req CreateBarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	datetime, err := importer.ParseDatetime(req.Datetime)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	exists, err := h.store.ExistsByDatetime(ctx, datetime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询K线数据失败: " + err.Error(),
		})
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, duplicateResponse(datetime))
		return
	}

	bar := &model.StockBar{
		Datetime:   datetime,
		Open:       *req.Open,
		High:       *req.High,
		Low:        *req.Low,
		Close:      *req.Close,
		Volume:     *req.Volume,
		Instrument: strings.TrimSpace(req.Instrument),
	}
	if bar.Instrument == "" {
		bar.Instrument = h.defaultInstrument
	}

	if err := h.store.Create(ctx, bar); err != nil {
		// 并发写入同一时间戳时由唯一索引兜底
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, duplicateResponse(datetime))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "保存K线数据失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, bar)
}

func duplicateResponse(datetime time.Time) gin.H {
	return gin.H{
		"error": fmt.Sprintf("Stock data for datetime %s already exists", datetime.Format(time.RFC3339)),
	}
}

// StrategyPerformance 均线交叉策略回测
func (h *Handlers) StrategyPerformance(c *gin.Context) {
	params := strategy.Params{
		ShortWindow: defaultShortWindow,
		LongWindow:  defaultLongWindow,
	}
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"short_window", &params.ShortWindow},
		{"long_window", &params.LongWindow},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("%s参数必须为正整数", q.name),
			})
			return
		}
		*q.dst = v
	}

	bars, err := h.store.List(c.Request.Context(), database.BarFilter{Instrument: c.Query("instrument")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "查询K线数据失败: " + err.Error(),
		})
		return
	}
	if len(bars) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No stock data found",
		})
		return
	}

	perf, err := strategy.MovingAverageCrossover(bars, params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, perf)
}

// RecordImport 处理 imports.completed 消息，记录最近一次导入并更新监控状态
func (h *Handlers) RecordImport(data []byte) error {
	var report importer.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("解析导入结果失败: %w", err)
	}

	h.mu.Lock()
	h.lastImport = &report
	h.mu.Unlock()

	if h.monitor != nil {
		if report.Error != "" {
			h.monitor.UpdateStatus(ImporterComponent, monitor.StatusUnhealthy, report.Error)
		} else {
			h.monitor.UpdateStatus(ImporterComponent, monitor.StatusHealthy, "")
		}
	}
	return nil
}

// LatestImport 返回最近一次导入结果
func (h *Handlers) LatestImport(c *gin.Context) {
	h.mu.RLock()
	report := h.lastImport
	h.mu.RUnlock()

	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No import recorded",
		})
		return
	}

	resp := gin.H{"report": report}
	if h.monitor != nil {
		if status := h.monitor.GetStatus(ImporterComponent); status != nil {
			resp["status"] = status
		}
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// LiveHandler はWebSocketでのライブ更新配信ハンドラー。
// 接続ごとにポーリングループを持ち、前回プッシュ以降に更新されたIssueを
// 一定間隔で配信する。更新がない間隔ではメッセージを送らない。
type LiveHandler struct {
	service      IssueServiceInterface
	pushInterval time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewLiveHandler はLiveHandlerを生成する。
func NewLiveHandler(service IssueServiceInterface, pushInterval time.Duration, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		service:      service,
		pushInterval: pushInterval,
		logger:       logger,
		now:          time.Now,
	}
}

// livePushMessage はWebSocketで配信する1メッセージ分。
type livePushMessage struct {
	Issues      []issueResponse `json:"issues"`
	Total       int             `json:"total"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ServeHTTP はWebSocket接続をハンドリングする。
// GET /api/issues/live/ws
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serve).ServeHTTP(w, r)
}

// serve は接続1本分の配信ループ。
// クライアント切断かコンテキストキャンセルで終了する。
func (h *LiveHandler) serve(ws *websocket.Conn) {
	defer ws.Close()

	connID := uuid.New().String()
	ctx := ws.Request().Context()

	h.logger.Info("WebSocket接続を開始しました",
		slog.String("conn_id", connID),
	)

	// ハイジャック済み接続ではリクエストコンテキストが切断でキャンセルされないため、
	// 読み取り専用goroutineでクライアント切断を検知する。
	// 更新ゼロの間隔では送信が発生せず、送信エラーでは切断に気付けない。
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		buf := make([]byte, 64)
		for {
			if _, err := ws.Read(buf); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pushInterval)
	defer ticker.Stop()

	lastPush := h.now()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket接続を終了します",
				slog.String("conn_id", connID),
			)
			return
		case <-closed:
			h.logger.Info("WebSocket接続を終了します",
				slog.String("conn_id", connID),
				slog.String("reason", "client disconnected"),
			)
			return
		case <-ticker.C:
			now := h.now()
			issues, err := h.service.UpdatedSince(ctx, lastPush)
			if err != nil {
				h.logger.Error("ライブ更新の取得に失敗しました",
					slog.String("conn_id", connID),
					slog.String("error", err.Error()),
				)
				continue
			}
			lastPush = now

			if len(issues) == 0 {
				continue
			}

			responses := toIssueResponses(issues, now)
			msg := livePushMessage{
				Issues:      responses,
				Total:       len(responses),
				GeneratedAt: now,
			}
			if err := websocket.JSON.Send(ws, msg); err != nil {
				// 送信失敗はクライアント切断とみなす
				h.logger.Info("WebSocket接続を終了します",
					slog.String("conn_id", connID),
					slog.String("reason", err.Error()),
				)
				return
			}
		}
	}
}

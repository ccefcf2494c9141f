package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// streamJSON はSSEでチャネルの値をJSONとして流し続ける。
// クライアント切断かチャネルcloseで終わる。
func streamJSON[T any](c echo.Context, ch <-chan T, cancel func()) error {
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}
	flusher.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, open := <-ch:
			if !open {
				return nil
			}
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", b); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

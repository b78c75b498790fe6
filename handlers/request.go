package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"wellness/middleware"
	"wellness/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger returns the global logger annotated with the route and caller.
func getLogger(c *gin.Context) *zap.Logger {
	actor := middleware.ActorFrom(c)
	return utils.GetLogger().With(
		zap.String("route", c.FullPath()),
		zap.String("actorId", actor.ID),
		zap.String("role", string(actor.Role)),
	)
}

// bindJSON decodes the body into dst and renders a validation error on failure. An empty body is
// accepted when optional is set.
func bindJSON(c *gin.Context, dst any, optional bool) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		utils.RespondError(c, utils.Validationf("invalid request payload: %v", err))
		return false
	}
	return true
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, utils.Validationf("%s must be an RFC 3339 timestamp", key)
	}
	t = t.UTC()
	return &t, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, utils.Validationf("%s must be an integer", key)
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

// queryList accepts both repeated keys and comma separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

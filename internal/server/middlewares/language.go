package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/outfit-wizard/internal/i18n"
	"github.com/vzahanych/outfit-wizard/internal/server/utils"
)

const (
	LangParam      = "lang"
	LangCookieName = "wizard_lang"
)

// LanguageMiddleware picks the UI language from the lang query parameter, the
// language cookie or Accept-Language, in that order. An explicit lang query
// is persisted as a cookie.
func LanguageMiddleware(bundle *i18n.Bundle) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			accept  string
			persist bool
		)
		if q := strings.TrimSpace(c.Query(LangParam)); q != "" {
			accept, persist = q, true
		} else if cookie, err := c.Cookie(LangCookieName); err == nil && cookie != "" {
			accept = cookie
		} else {
			accept = c.GetHeader("Accept-Language")
		}

		tag := bundle.Match(accept)
		if persist {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(LangCookieName, tag.String(), int((365 * 24 * time.Hour).Seconds()), "/", "", false, false)
		}

		c.Set(utils.PrinterKey, bundle.Printer(tag))
		c.Next()
	}
}

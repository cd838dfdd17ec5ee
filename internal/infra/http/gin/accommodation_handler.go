package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"pousada/internal/app/dto"
	"pousada/internal/app/handlers/reservations"
	"pousada/internal/app/queries"
)

type AccommodationHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AccommodationHandler) Options(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	q := reservations.ListOptionsQuery{
		Session:  sess,
		CheckIn:  c.Query("check_in"),
		CheckOut: c.Query("check_out"),
	}
	options, err := queries.Ask[reservations.ListOptionsQuery, []dto.OptionView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": options})
}

var _ AccommodationHTTP = AccommodationHandler{}

package api

import (
	"github.com/ekodecrux/expertaitutor3-sub001/internal/db"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/services"
)

// Server holds the dependencies of the HTTP layer.
type Server struct {
	ScheduleService services.ScheduleService
	DB              *db.DB
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sqlbay/sqlbay/internal/apperr"
	"github.com/sqlbay/sqlbay/internal/config"
	"github.com/sqlbay/sqlbay/internal/connstr"
	"github.com/sqlbay/sqlbay/internal/middleware"
	"github.com/sqlbay/sqlbay/internal/model"
	"github.com/sqlbay/sqlbay/internal/probe"
	"github.com/sqlbay/sqlbay/internal/queue"
	"github.com/sqlbay/sqlbay/internal/repository"
	"github.com/sqlbay/sqlbay/internal/utils"
)

// DefaultConnectionName is used when the client omits a display name.
const DefaultConnectionName = "Main connection"

// Prober abstracts the connectivity check so handlers can be tested
// without a live database.
type Prober interface {
	Probe(ctx context.Context, connString string) (probe.Result, error)
}

// PgProber is the production Prober backed by internal/probe.
type PgProber struct{ Timeout time.Duration }

func (p PgProber) Probe(ctx context.Context, connString string) (probe.Result, error) {
	return probe.Run(ctx, connString, p.Timeout)
}

// ConnectionHandler bundles dependencies for the per-project db-connection
// endpoints.
type ConnectionHandler struct {
	Cfg         config.Config
	Projects    repository.ProjectStore
	Connections repository.ConnectionStore
	Prober      Prober
	Events      queue.EventPublisher
}

func NewConnectionHandler(cfg config.Config, projects repository.ProjectStore,
	connections repository.ConnectionStore, prober Prober, events queue.EventPublisher) *ConnectionHandler {
	return &ConnectionHandler{Cfg: cfg, Projects: projects, Connections: connections, Prober: prober, Events: events}
}

type upsertConnectionReq struct {
	ConnectionString string  `json:"connectionString" validate:"required"`
	Name             *string `json:"name" validate:"omitempty,min=1,max=255"`
	ReadOnly         *bool   `json:"readOnly"`
}

type probeResp struct {
	Message   string `json:"message"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
}

// Upsert handles PUT /project/:projectId/db-connection.  The steps are
// ordered hard gates: ownership, parse, probe the raw supplied string,
// then persist.  A failed probe persists nothing.
func (h *ConnectionHandler) Upsert(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	projectID, err := parseProjectID(c)
	if err != nil {
		return err
	}
	var req upsertConnectionReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ownCtx, cancelOwn := dbCtx(c)
	project, err := requireOwnedProject(ownCtx, h.Projects, userID, projectID)
	cancelOwn()
	if err != nil {
		return err
	}

	info, err := connstr.Parse(req.ConnectionString)
	if err != nil {
		return apperr.Wrap(err, apperr.KindBadRequest, apperr.CodeBadConnString, connStrMessage(err))
	}

	// Probe the raw supplied string, not a reconstruction: the check
	// validates the user's claim exactly as given, before persisting it.
	result, err := h.Prober.Probe(c.Request().Context(), req.ConnectionString)
	if err != nil {
		return apperr.Wrap(err, apperr.KindBadRequest, apperr.CodeConnectFailed,
			fmt.Sprintf("Cannot connect to database, error: %v", err))
	}

	passwordEnc, err := utils.EncryptSecret(h.Cfg.CredKey, info.Password)
	if err != nil {
		return apperr.Internal(err)
	}

	conn := &model.DbConnection{
		ProjectID:   project.ID,
		Name:        DefaultConnectionName,
		Host:        info.Host,
		Port:        info.Port,
		Database:    info.Database,
		Username:    info.Username,
		PasswordEnc: passwordEnc,
		ReadOnly:    true,
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		conn.Name = strings.TrimSpace(*req.Name)
	}
	if req.ReadOnly != nil {
		conn.ReadOnly = *req.ReadOnly
	}

	// The probe may legitimately run longer than the repository window,
	// so the persistence context starts only after the probe returns.
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Connections.Upsert(ctx, conn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.Conflict(apperr.CodeUniqueViolation, "A connection with this name already exists.")
		}
		return apperr.Internal(err)
	}

	h.publish(c, queue.TypeConnectionUpserted, queue.ConnectionUpsertedEvent{
		ProjectID:  project.ID,
		UserID:     userID,
		Name:       conn.Name,
		Host:       conn.Host,
		Port:       conn.Port,
		Database:   conn.Database,
		LatencyMs:  result.LatencyMs,
		UpsertedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, probeResp{
		Message:   "Database connected successfully.",
		OK:        result.OK,
		LatencyMs: result.LatencyMs,
	})
}

// Test handles GET /project/:projectId/db-connection/test: it rebuilds
// the connection string from the stored fields (decrypting the password)
// and probes the saved target.
func (h *ConnectionHandler) Test(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	projectID, err := parseProjectID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	project, err := requireOwnedProject(ctx, h.Projects, userID, projectID)
	if err != nil {
		return err
	}

	conn, err := h.Connections.GetByProject(ctx, project.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Db connection not configured yet for this project.")
		}
		return apperr.Internal(err)
	}

	password, err := utils.DecryptSecret(h.Cfg.CredKey, conn.PasswordEnc)
	if err != nil {
		return apperr.Internal(err)
	}

	target := connstr.ConnInfo{
		Host:     conn.Host,
		Port:     conn.Port,
		Database: conn.Database,
		Username: conn.Username,
		Password: password,
	}
	result, err := h.Prober.Probe(c.Request().Context(), target.String())
	if err != nil {
		return apperr.Wrap(err, apperr.KindBadRequest, apperr.CodeConnectFailed,
			fmt.Sprintf("Cannot connect to database, error: %v", err))
	}

	return c.JSON(http.StatusOK, probeResp{
		Message:   "Your connection is established.",
		OK:        result.OK,
		LatencyMs: result.LatencyMs,
	})
}

func (h *ConnectionHandler) publish(c echo.Context, eventType string, payload any) {
	if h.Events == nil {
		return
	}
	_ = h.Events.Publish(c.Request().Context(), eventType, payload)
}

// connStrMessage keeps the codec's reason while presenting a sentence.
func connStrMessage(err error) string {
	msg := err.Error()
	if cut, ok := strings.CutPrefix(msg, connstr.ErrInvalid.Error()+": "); ok {
		return "Invalid connection string: " + cut + "."
	}
	return "Invalid connection string."
}

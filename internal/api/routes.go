package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/audioroom/backend/internal/config"
	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/locale"
	"github.com/audioroom/backend/internal/protocol"
	"github.com/audioroom/backend/internal/table"
	"github.com/audioroom/backend/internal/ws"
)

// SetupRoutes configures the HTTP surface: the websocket endpoint plus
// a small read-only REST facade for launchers and monitoring.
func SetupRoutes(router *gin.Engine, wsServer *ws.Server, tables *table.Manager, db *sqlx.DB, cfg *config.Config, catalog *locale.Catalog, version string) {
	router.GET("/ws", wsServer.Handle())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			status := "ok"
			if err := db.Ping(); err != nil {
				status = "degraded"
			}
			c.JSON(http.StatusOK, gin.H{"status": status, "version": version})
		})

		v1.GET("/games", func(c *gin.Context) {
			descs := game.AllGames()
			out := make([]protocol.GameInfo, 0, len(descs))
			for _, d := range descs {
				out = append(out, protocol.GameInfo{
					TypeID:     d.TypeID,
					Name:       catalog.T("en", d.NameID, nil),
					MinPlayers: d.MinPlayers,
					MaxPlayers: d.MaxPlayers,
				})
			}
			c.JSON(http.StatusOK, gin.H{"games": out})
		})

		v1.GET("/tables", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"tables": tables.ListActive()})
		})
	}
}

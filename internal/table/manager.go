package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/audioroom/backend/internal/config"
	"github.com/audioroom/backend/internal/game"
	"github.com/audioroom/backend/internal/locale"
	"github.com/audioroom/backend/internal/models"
	"github.com/audioroom/backend/internal/protocol"
)

var (
	ErrTooManyTables  = errors.New("server table limit reached")
	ErrAlreadySeated  = errors.New("user is already at a table")
	ErrUnknownTable   = errors.New("no such table")
	ErrUnknownGame    = errors.New("no such game type")
	ErrNoSavedTable   = errors.New("no such saved table")
	ErrGameInProgress = errors.New("game already in progress")
)

// Manager is the table directory. It maps table ids to live tables and
// user ids to the one table each user may occupy.
type Manager struct {
	mu      sync.RWMutex
	tables  map[string]*Table
	byUser  map[string]string // user id -> table id
	pending map[string]*time.Timer

	db      *sqlx.DB
	rdb     *redis.Client
	cfg     *config.Config
	catalog *locale.Catalog

	// closed, when set, is told which users just lost their table so
	// the session layer can return them to the main menu.
	closed func(userIDs []string)
}

// SetClosedHook registers the session-layer callback run after a table
// is destroyed.
func (m *Manager) SetClosedHook(fn func(userIDs []string)) { m.closed = fn }

func NewManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, catalog *locale.Catalog) *Manager {
	return &Manager{
		tables:  make(map[string]*Table),
		byUser:  make(map[string]string),
		pending: make(map[string]*time.Timer),
		db:      db,
		rdb:     rdb,
		cfg:     cfg,
		catalog: catalog,
	}
}

// Create seats the host at a fresh table for the given game type.
func (m *Manager) Create(host game.User, gameType string, options map[string]string) (*Table, error) {
	desc, ok := game.Lookup(gameType)
	if !ok {
		return nil, ErrUnknownGame
	}

	m.mu.Lock()
	if len(m.tables) >= m.cfg.MaxTables {
		m.mu.Unlock()
		return nil, ErrTooManyTables
	}
	if _, seated := m.byUser[host.ID()]; seated {
		m.mu.Unlock()
		return nil, ErrAlreadySeated
	}

	g := desc.New()
	b := g.Base()
	b.Init(g, desc, m.catalog, options)
	b.SetBotThinkRange(m.cfg.BotThinkMinTicks, m.cfg.BotThinkMaxTicks)
	b.SetEstimatorConfig(game.EstimatorConfig{
		Binary:  m.cfg.SimulateBinary,
		Workers: m.cfg.EstimatorWorkers,
		Timeout: time.Duration(m.cfg.EstimatorTimeoutSeconds) * time.Second,
	})

	t := newTable(g, m.cfg.TickRateHz)
	m.wireHooks(t)
	m.tables[t.ID] = t
	m.byUser[host.ID()] = t.ID
	m.mu.Unlock()

	ok = t.DoSync(func() {
		if _, err := b.AddPlayer(host, false); err != nil {
			log.Printf("[TABLE] Failed to seat host at %s: %v", t.ID, err)
		}
		b.RebuildMenusFor(b.PlayerByID(host.ID()))
	})
	if !ok {
		return nil, ErrUnknownTable
	}
	log.Printf("[TABLE] %s created table %s (%s)", host.Name(), t.ID, gameType)
	return t, nil
}

// Join seats a user at an existing table, as a player while the game is
// waiting, as a spectator otherwise (or on request).
func (m *Manager) Join(u game.User, tableID string, spectator bool) (*Table, error) {
	m.mu.Lock()
	t, exists := m.tables[tableID]
	if !exists {
		m.mu.Unlock()
		return nil, ErrUnknownTable
	}
	if existing, seated := m.byUser[u.ID()]; seated && existing != tableID {
		m.mu.Unlock()
		return nil, ErrAlreadySeated
	}
	m.byUser[u.ID()] = tableID
	m.mu.Unlock()

	var joinErr error
	t.DoSync(func() {
		b := t.g.Base()
		// Rejoining an occupied seat is a reconnect.
		if p := b.PlayerByID(u.ID()); p != nil {
			m.cancelGrace(u.ID())
			b.BindUser(u)
			b.BroadcastL("player_joined", map[string]interface{}{"player": u.Name()})
			return
		}
		if b.Status != game.StatusWaiting {
			spectator = true
		}
		if _, err := b.AddPlayer(u, spectator); err != nil {
			joinErr = err
			return
		}
		b.BroadcastL("player_joined", map[string]interface{}{"player": u.Name()})
		b.RebuildAllMenus()
	})
	if joinErr != nil {
		m.mu.Lock()
		delete(m.byUser, u.ID())
		m.mu.Unlock()
		return nil, joinErr
	}
	return t, nil
}

// Leave removes the user from their table. Mid-game, a bot takes over
// the seat; the table is destroyed once no humans remain.
func (m *Manager) Leave(userID string) {
	m.mu.Lock()
	tableID, seated := m.byUser[userID]
	if !seated {
		m.mu.Unlock()
		return
	}
	delete(m.byUser, userID)
	t := m.tables[tableID]
	m.mu.Unlock()
	if t == nil {
		return
	}
	m.cancelGrace(userID)

	var empty bool
	t.DoSync(func() {
		b := t.g.Base()
		p := b.PlayerByID(userID)
		if p == nil {
			empty = b.HumanCount() == 0
			return
		}
		name := p.Name
		if b.Status == game.StatusPlaying && !p.IsSpectator {
			b.SubstituteBot(p)
			b.BroadcastL("player_replaced_by_bot", map[string]interface{}{"player": name})
		} else {
			b.RemovePlayer(userID)
			b.BroadcastL("player_left", map[string]interface{}{"player": name})
			if host := b.HostPlayer(); host != nil && host.ID != userID {
				b.BroadcastL("host_now", map[string]interface{}{"player": host.Name})
			}
		}
		b.RebuildAllMenus()
		empty = b.HumanCount() == 0
	})
	if empty {
		m.destroy(tableID)
	}
}

// HandleDisconnect starts the reconnect grace clock for a seated user.
// If they do not return in time they are treated as having left.
func (m *Manager) HandleDisconnect(userID string) {
	m.mu.RLock()
	_, seated := m.byUser[userID]
	m.mu.RUnlock()
	if !seated {
		return
	}

	grace := time.Duration(m.cfg.ReconnectGraceSecs) * time.Second
	m.mu.Lock()
	if prev, ok := m.pending[userID]; ok {
		prev.Stop()
	}
	m.pending[userID] = time.AfterFunc(grace, func() {
		m.mu.Lock()
		delete(m.pending, userID)
		m.mu.Unlock()
		log.Printf("[TABLE] Reconnect grace expired for user %s", userID)
		m.Leave(userID)
	})
	m.mu.Unlock()

	// Detach the stale handle so queued packets stop flowing to it.
	if t := m.TableFor(userID); t != nil {
		t.Do(func() {
			if p := t.g.Base().PlayerByID(userID); p != nil && !p.IsBot {
				p.SetUser(nil)
			}
		})
	}
}

func (m *Manager) cancelGrace(userID string) {
	m.mu.Lock()
	if timer, ok := m.pending[userID]; ok {
		timer.Stop()
		delete(m.pending, userID)
	}
	m.mu.Unlock()
}

// TableFor returns the table the user is seated at, nil when unseated.
func (m *Manager) TableFor(userID string) *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tableID, seated := m.byUser[userID]
	if !seated {
		return nil
	}
	return m.tables[tableID]
}

// Info is one row of the public table listing.
type Info struct {
	ID       string `json:"id"`
	GameType string `json:"game_type"`
	GameName string `json:"game_name"`
	HostName string `json:"host_name"`
	Players  int    `json:"players"`
	Status   string `json:"status"`
}

// ListActive snapshots the table directory, oldest table first.
func (m *Manager) ListActive() []Info {
	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()
	sort.Slice(tables, func(i, j int) bool { return tables[i].Created.Before(tables[j].Created) })

	out := make([]Info, 0, len(tables))
	for _, t := range tables {
		info := Info{ID: t.ID, GameType: t.GameType}
		t.DoSync(func() {
			b := t.g.Base()
			info.GameName = m.catalog.T("en", b.Descriptor().NameID, nil)
			info.Players = b.ActiveCount()
			info.Status = string(b.Status)
			if host := b.HostPlayer(); host != nil {
				info.HostName = host.Name
			}
		})
		out = append(out, info)
	}
	return out
}

// destroy removes the table from the directory, tells the seated humans
// their table is gone and stops the loop. Must not be called from the
// table's own loop.
func (m *Manager) destroy(tableID string) {
	m.mu.Lock()
	t, exists := m.tables[tableID]
	var evicted []string
	if exists {
		delete(m.tables, tableID)
		for uid, tid := range m.byUser {
			if tid == tableID {
				delete(m.byUser, uid)
				evicted = append(evicted, uid)
			}
		}
	}
	m.mu.Unlock()
	if t == nil {
		return
	}

	t.DoSync(func() {
		b := t.g.Base()
		for _, p := range b.Players {
			if p.IsBot {
				continue
			}
			b.SpeakTo(p, "table_closed", nil)
			if u := p.User(); u != nil {
				u.Queue(protocol.NewClearUI())
			}
		}
	})
	t.stop()

	if m.closed != nil && len(evicted) > 0 {
		m.closed(evicted)
	}
}

// Shutdown stops every table.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	tables := m.tables
	m.tables = make(map[string]*Table)
	m.byUser = make(map[string]string)
	m.mu.Unlock()
	for _, t := range tables {
		t.stop()
	}
}

// wireHooks binds the persistence callbacks into a fresh game. They run
// on the table loop.
func (m *Manager) wireHooks(t *Table) {
	b := t.g.Base()
	b.SetResultSink(func(res game.GameResult) {
		m.persistResult(res)
	})
	b.SetSaveHook(func(p *game.Player) {
		m.saveTable(t, p)
	})
	b.SetLeaveHook(func(p *game.Player) {
		// Leave re-enters the manager; hop off the table loop first.
		go m.Leave(p.ID)
	})
}

func (m *Manager) persistResult(res game.GameResult) {
	playersJSON, err := json.Marshal(res.Players)
	if err != nil {
		log.Printf("[DB] Failed to marshal game result players: %v", err)
		return
	}
	customJSON, err := json.Marshal(res.Custom)
	if err != nil {
		customJSON = []byte("{}")
	}
	if _, err := m.db.Exec(`
		INSERT INTO game_results (game_type, duration_ticks, player_results, custom_data, finished_at)
		VALUES ($1, $2, $3, $4, $5)`,
		res.GameType, res.DurationTicks, playersJSON, customJSON, res.FinishedAt); err != nil {
		log.Printf("[DB] Failed to persist game result: %v", err)
	}
}

// saveTable snapshots the game and stores it under the saving host's
// account, in Postgres for durability and in Redis for fast listing.
func (m *Manager) saveTable(t *Table, p *game.Player) {
	b := t.g.Base()
	data, err := b.Snapshot()
	if err != nil {
		log.Printf("[TABLE] Snapshot failed for table %s: %v", t.ID, err)
		b.SpeakTo(p, "internal_error", nil)
		return
	}

	ownerID, err := strconv.Atoi(p.ID)
	if err != nil {
		log.Printf("[TABLE] Cannot save table %s: non-account owner id %q", t.ID, p.ID)
		return
	}

	if _, err := m.db.Exec(`
		INSERT INTO saved_tables (owner_id, game_type, snapshot, saved_at_tick, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		ownerID, t.GameType, data, b.TickCount); err != nil {
		log.Printf("[DB] Failed to save table %s: %v", t.ID, err)
		b.SpeakTo(p, "internal_error", nil)
		return
	}

	if m.rdb != nil {
		ttl := time.Duration(m.cfg.SavedTableTTLHours) * time.Hour
		key := fmt.Sprintf("saved_table:%d:%s", ownerID, t.GameType)
		if err := m.rdb.Set(context.Background(), key, data, ttl).Err(); err != nil {
			log.Printf("[TABLE] Redis cache of saved table failed: %v", err)
		}
	}

	log.Printf("[TABLE] Table %s saved by %s at tick %d", t.ID, p.Name, b.TickCount)
	m.finishSave(t, b)
}

// finishSave announces a successful save and closes the table; saving
// is save-and-close. It runs on the table loop, so the destroy hops to
// its own goroutine.
func (m *Manager) finishSave(t *Table, b *game.Base) {
	b.BroadcastL("table_saved", nil)
	go m.destroy(t.ID)
}

// SavedTables lists the account's resumable saves, newest first.
func (m *Manager) SavedTables(ownerID int) ([]models.SavedTable, error) {
	var rows []models.SavedTable
	err := m.db.Select(&rows, `
		SELECT id, owner_id, game_type, snapshot, saved_at_tick, created_at
		FROM saved_tables WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	return rows, err
}

// Resume rebuilds a saved table. Seats whose humans have not yet
// rejoined run as bots until their owners connect and are rebound.
func (m *Manager) Resume(owner game.User, savedID int) (*Table, error) {
	ownerID, err := strconv.Atoi(owner.ID())
	if err != nil {
		return nil, ErrNoSavedTable
	}

	var row models.SavedTable
	err = m.db.Get(&row, `
		SELECT id, owner_id, game_type, snapshot, saved_at_tick, created_at
		FROM saved_tables WHERE id=$1 AND owner_id=$2`, savedID, ownerID)
	if err != nil {
		return nil, ErrNoSavedTable
	}

	g, err := game.RestoreGame(row.Snapshot, m.catalog)
	if err != nil {
		return nil, err
	}
	b := g.Base()
	b.SetBotThinkRange(m.cfg.BotThinkMinTicks, m.cfg.BotThinkMaxTicks)
	b.SetEstimatorConfig(game.EstimatorConfig{
		Binary:  m.cfg.SimulateBinary,
		Workers: m.cfg.EstimatorWorkers,
		Timeout: time.Duration(m.cfg.EstimatorTimeoutSeconds) * time.Second,
	})

	m.mu.Lock()
	if len(m.tables) >= m.cfg.MaxTables {
		m.mu.Unlock()
		return nil, ErrTooManyTables
	}
	if _, seated := m.byUser[owner.ID()]; seated {
		m.mu.Unlock()
		return nil, ErrAlreadySeated
	}
	t := newTable(g, m.cfg.TickRateHz)
	m.wireHooks(t)
	m.tables[t.ID] = t
	m.byUser[owner.ID()] = t.ID
	m.mu.Unlock()

	t.DoSync(func() {
		// Absent humans play on as bots until they reconnect.
		for _, p := range b.Players {
			if !p.IsBot && p.User() == nil && p.ID != owner.ID() {
				b.SubstituteBot(p)
			}
		}
		if b.PlayerByID(owner.ID()) != nil {
			b.BindUser(owner)
		}
		b.BroadcastL("table_resumed", nil)
	})

	if _, err := m.db.Exec(`DELETE FROM saved_tables WHERE id=$1`, savedID); err != nil {
		log.Printf("[DB] Failed to delete consumed save %d: %v", savedID, err)
	}
	log.Printf("[TABLE] %s resumed save %d as table %s (%s)", owner.Name(), savedID, t.ID, row.GameType)
	return t, nil
}

// PurgeExpiredSaves drops saves older than the retention window. Runs
// from a background worker.
func (m *Manager) PurgeExpiredSaves() {
	cutoff := time.Now().Add(-time.Duration(m.cfg.SavedTableTTLHours) * time.Hour)
	res, err := m.db.Exec(`DELETE FROM saved_tables WHERE created_at < $1`, cutoff)
	if err != nil {
		log.Printf("[DB] Saved-table purge failed: %v", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[DB] Purged %d expired saved tables", n)
	}
}

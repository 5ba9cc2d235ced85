package services

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"pem-system/internal/authz"
	"pem-system/internal/entities"
	"pem-system/internal/repositories"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/types"
	"pem-system/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// memStore - хранилище в памяти для тестов сервисов. Транзакция
// снимает копию состояния и восстанавливает её при ошибке.
type memStore struct {
	equipments       map[uint64]entities.Equipment
	shipments        map[uint64]entities.Shipment
	links            map[uint64][]uint64
	users            map[uint64]entities.User
	equipmentHistory []entities.EquipmentHistory
	shipmentHistory  []entities.ShipmentHistory
	importLogs       []entities.ImportLog
	auditLogs        []entities.AuditLog
	nextID           uint64

	// последовательность номеров не откатывается, как и в PostgreSQL
	shipmentSeq int64
	failures    map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		equipments: map[uint64]entities.Equipment{},
		shipments:  map[uint64]entities.Shipment{},
		links:      map[uint64][]uint64{},
		users:      map[uint64]entities.User{},
		failures:   map[string]error{},
		nextID:     100, // ID из adminCtx/operatorCtx хранилище не выдаёт
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) fail(op string) error {
	return s.failures[op]
}

type memSnapshot struct {
	equipments       map[uint64]entities.Equipment
	shipments        map[uint64]entities.Shipment
	links            map[uint64][]uint64
	users            map[uint64]entities.User
	equipmentHistory []entities.EquipmentHistory
	shipmentHistory  []entities.ShipmentHistory
	importLogs       []entities.ImportLog
}

func (s *memStore) snapshot() memSnapshot {
	links := make(map[uint64][]uint64, len(s.links))
	for k, v := range s.links {
		links[k] = slices.Clone(v)
	}
	equipments := make(map[uint64]entities.Equipment, len(s.equipments))
	for k, v := range s.equipments {
		equipments[k] = v
	}
	shipments := make(map[uint64]entities.Shipment, len(s.shipments))
	for k, v := range s.shipments {
		shipments[k] = v
	}
	users := make(map[uint64]entities.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	return memSnapshot{
		equipments:       equipments,
		shipments:        shipments,
		links:            links,
		users:            users,
		equipmentHistory: slices.Clone(s.equipmentHistory),
		shipmentHistory:  slices.Clone(s.shipmentHistory),
		importLogs:       slices.Clone(s.importLogs),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.equipments = snap.equipments
	s.shipments = snap.shipments
	s.links = snap.links
	s.users = snap.users
	s.equipmentHistory = snap.equipmentHistory
	s.shipmentHistory = snap.shipmentHistory
	s.importLogs = snap.importLogs
}

// --- транзакции ---

type memTxManager struct{ store *memStore }

func (m *memTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// --- оборудование ---

type memEquipmentRepo struct{ store *memStore }

func (r *memEquipmentRepo) GetEquipments(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	result := make([]entities.Equipment, 0, len(r.store.equipments))
	for _, e := range r.store.equipments {
		if status, ok := filter.Filter["status"]; ok && string(e.Status) != status {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, uint64(len(result)), nil
}

func (r *memEquipmentRepo) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	e, ok := r.store.equipments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (r *memEquipmentRepo) FindEquipmentForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.FindEquipment(ctx, id)
}

func (r *memEquipmentRepo) FindEquipmentByCode(ctx context.Context, tx pgx.Tx, code string) (*entities.Equipment, error) {
	for _, e := range r.store.equipments {
		if e.Code == code {
			found := e
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memEquipmentRepo) FindEquipmentsByIDs(ctx context.Context, tx pgx.Tx, ids []uint64) ([]entities.Equipment, error) {
	result := make([]entities.Equipment, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.store.equipments[id]; ok {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memEquipmentRepo) CreateEquipment(ctx context.Context, tx pgx.Tx, e *entities.Equipment) (*entities.Equipment, error) {
	if err := r.store.fail("CreateEquipment"); err != nil {
		return nil, err
	}
	if _, err := r.FindEquipmentByCode(ctx, tx, e.Code); err == nil {
		return nil, apperrors.NewConflictError("Código de equipamento já existe: %s", e.Code)
	}
	created := *e
	created.ID = r.store.id()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.store.equipments[created.ID] = created
	return &created, nil
}

func (r *memEquipmentRepo) UpdateEquipment(ctx context.Context, tx pgx.Tx, e *entities.Equipment) (*entities.Equipment, error) {
	current, ok := r.store.equipments[e.ID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	updated := *e
	updated.Code = current.Code
	updated.UpdatedAt = time.Now()
	r.store.equipments[e.ID] = updated
	return &updated, nil
}

func (r *memEquipmentRepo) DeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.store.equipments[id]; !ok {
		return apperrors.ErrNotFound
	}
	for shipmentID, ids := range r.store.links {
		r.store.links[shipmentID] = slices.DeleteFunc(ids, func(v uint64) bool { return v == id })
	}
	r.store.equipmentHistory = slices.DeleteFunc(r.store.equipmentHistory, func(h entities.EquipmentHistory) bool {
		return h.EquipmentID == id
	})
	delete(r.store.equipments, id)
	return nil
}

func (r *memEquipmentRepo) DeleteAllEquipments(ctx context.Context, tx pgx.Tx) (int64, error) {
	removed := int64(len(r.store.equipments))
	r.store.equipments = map[uint64]entities.Equipment{}
	r.store.links = map[uint64][]uint64{}
	r.store.equipmentHistory = nil
	return removed, nil
}

func (r *memEquipmentRepo) SetStatus(ctx context.Context, tx pgx.Tx, ids []uint64, status entities.EquipmentStatus) error {
	for _, id := range ids {
		e := r.store.equipments[id]
		e.Status = status
		r.store.equipments[id] = e
	}
	return nil
}

func (r *memEquipmentRepo) SetStatusAndLocation(ctx context.Context, tx pgx.Tx, ids []uint64, status entities.EquipmentStatus, location string) error {
	if err := r.store.fail("SetStatusAndLocation"); err != nil {
		return err
	}
	for _, id := range ids {
		e := r.store.equipments[id]
		e.Status = status
		e.Location = location
		r.store.equipments[id] = e
	}
	return nil
}

func (r *memEquipmentRepo) IsInOpenShipment(ctx context.Context, tx pgx.Tx, id uint64) (bool, error) {
	for shipmentID, ids := range r.store.links {
		if r.store.shipments[shipmentID].Status.IsOpen() && slices.Contains(ids, id) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEquipmentRepo) CountInOpenShipments(ctx context.Context, tx pgx.Tx) (int, error) {
	seen := map[uint64]bool{}
	for shipmentID, ids := range r.store.links {
		if !r.store.shipments[shipmentID].Status.IsOpen() {
			continue
		}
		for _, id := range ids {
			seen[id] = true
		}
	}
	return len(seen), nil
}

// --- отправки ---

type memShipmentRepo struct{ store *memStore }

func (r *memShipmentRepo) GetShipments(ctx context.Context, filter types.Filter) ([]entities.Shipment, uint64, error) {
	result := make([]entities.Shipment, 0, len(r.store.shipments))
	for _, sh := range r.store.shipments {
		sh.EquipmentCount = len(r.store.links[sh.ID])
		result = append(result, sh)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, uint64(len(result)), nil
}

func (r *memShipmentRepo) FindShipment(ctx context.Context, id uint64) (*entities.Shipment, error) {
	sh, ok := r.store.shipments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	sh.EquipmentCount = len(r.store.links[id])
	return &sh, nil
}

func (r *memShipmentRepo) FindShipmentForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Shipment, error) {
	return r.FindShipment(ctx, id)
}

func (r *memShipmentRepo) NextShipmentNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	r.store.shipmentSeq++
	return entities.FormatShipmentNumber(r.store.shipmentSeq), nil
}

func (r *memShipmentRepo) CreateShipment(ctx context.Context, tx pgx.Tx, sh *entities.Shipment) (*entities.Shipment, error) {
	for _, existing := range r.store.shipments {
		if existing.ShipmentNumber == sh.ShipmentNumber {
			return nil, apperrors.NewConflictError("Número de remessa duplicado")
		}
	}
	created := *sh
	created.ID = r.store.id()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.store.shipments[created.ID] = created
	return &created, nil
}

func (r *memShipmentRepo) UpdateShipment(ctx context.Context, tx pgx.Tx, sh *entities.Shipment) (*entities.Shipment, error) {
	if _, ok := r.store.shipments[sh.ID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	updated := *sh
	updated.UpdatedAt = time.Now()
	r.store.shipments[sh.ID] = updated
	return &updated, nil
}

func (r *memShipmentRepo) DeleteShipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.store.shipments[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.store.shipments, id)
	delete(r.store.links, id)
	r.store.shipmentHistory = slices.DeleteFunc(r.store.shipmentHistory, func(h entities.ShipmentHistory) bool {
		return h.ShipmentID == id
	})
	return nil
}

func (r *memShipmentRepo) GetEquipmentIDs(ctx context.Context, tx pgx.Tx, shipmentID uint64) ([]uint64, error) {
	return slices.Clone(r.store.links[shipmentID]), nil
}

func (r *memShipmentRepo) GetShipmentEquipments(ctx context.Context, shipmentID uint64) ([]entities.Equipment, error) {
	result := make([]entities.Equipment, 0)
	for _, id := range r.store.links[shipmentID] {
		result = append(result, r.store.equipments[id])
	}
	return result, nil
}

func (r *memShipmentRepo) ReplaceEquipments(ctx context.Context, tx pgx.Tx, shipmentID uint64, equipmentIDs []uint64) error {
	r.store.links[shipmentID] = slices.Clone(equipmentIDs)
	return nil
}

func (r *memShipmentRepo) FindEquipmentInOtherOpenShipments(ctx context.Context, tx pgx.Tx, shipmentID uint64, equipmentIDs []uint64) ([]string, error) {
	codes := make([]string, 0)
	for otherID, ids := range r.store.links {
		if otherID == shipmentID || !r.store.shipments[otherID].Status.IsOpen() {
			continue
		}
		for _, id := range ids {
			if slices.Contains(equipmentIDs, id) {
				codes = append(codes, r.store.equipments[id].Code)
			}
		}
	}
	sort.Strings(codes)
	return slices.Compact(codes), nil
}

// --- история, журналы ---

type memHistoryRepo struct{ store *memStore }

func (r *memHistoryRepo) CreateEquipmentHistory(ctx context.Context, tx pgx.Tx, entry *entities.EquipmentHistory) error {
	if err := r.store.fail("CreateEquipmentHistory"); err != nil {
		return err
	}
	entry.ID = r.store.id()
	entry.CreatedAt = time.Now()
	r.store.equipmentHistory = append(r.store.equipmentHistory, *entry)
	return nil
}

func (r *memHistoryRepo) CreateShipmentHistory(ctx context.Context, tx pgx.Tx, entry *entities.ShipmentHistory) error {
	if err := r.store.fail("CreateShipmentHistory"); err != nil {
		return err
	}
	entry.ID = r.store.id()
	entry.CreatedAt = time.Now()
	r.store.shipmentHistory = append(r.store.shipmentHistory, *entry)
	return nil
}

func (r *memHistoryRepo) GetEquipmentHistory(ctx context.Context, equipmentID uint64) ([]entities.EquipmentHistory, error) {
	result := make([]entities.EquipmentHistory, 0)
	for _, h := range r.store.equipmentHistory {
		if h.EquipmentID == equipmentID {
			result = append(result, h)
		}
	}
	slices.Reverse(result)
	return result, nil
}

func (r *memHistoryRepo) GetShipmentHistory(ctx context.Context, shipmentID uint64) ([]entities.ShipmentHistory, error) {
	result := make([]entities.ShipmentHistory, 0)
	for _, h := range r.store.shipmentHistory {
		if h.ShipmentID == shipmentID {
			result = append(result, h)
		}
	}
	slices.Reverse(result)
	return result, nil
}

type memImportLogRepo struct{ store *memStore }

func (r *memImportLogRepo) CreateImportLog(ctx context.Context, tx pgx.Tx, entry *entities.ImportLog) error {
	entry.ID = r.store.id()
	entry.CreatedAt = time.Now()
	r.store.importLogs = append(r.store.importLogs, *entry)
	return nil
}

func (r *memImportLogRepo) GetImportLogs(ctx context.Context, filter types.Filter) ([]entities.ImportLog, uint64, error) {
	return slices.Clone(r.store.importLogs), uint64(len(r.store.importLogs)), nil
}

type memAuditRepo struct{ store *memStore }

func (r *memAuditRepo) CreateAuditLog(ctx context.Context, entry *entities.AuditLog) error {
	entry.ID = r.store.id()
	r.store.auditLogs = append(r.store.auditLogs, *entry)
	return nil
}

func (r *memAuditRepo) GetAuditLogs(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error) {
	return slices.Clone(r.store.auditLogs), uint64(len(r.store.auditLogs)), nil
}

func (s *memStore) auditActions() []entities.AuditAction {
	actions := make([]entities.AuditAction, 0, len(s.auditLogs))
	for _, a := range s.auditLogs {
		actions = append(actions, a.Action)
	}
	return actions
}

// --- пользователи ---

type memUserRepo struct{ store *memStore }

func (r *memUserRepo) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	result := make([]entities.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, uint64(len(result)), nil
}

func (r *memUserRepo) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) FindUserByLogin(ctx context.Context, login string) (*entities.User, error) {
	for _, u := range r.store.users {
		if strings.EqualFold(u.Username, login) || (u.Email != nil && strings.EqualFold(*u.Email, login)) {
			found := u
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUserRepo) CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (*entities.User, error) {
	if _, err := r.FindUserByLogin(ctx, user.Username); err == nil {
		return nil, apperrors.NewConflictError("Nome de usuário já existe")
	}
	created := *user
	created.ID = r.store.id()
	r.store.users[created.ID] = created
	return &created, nil
}

func (r *memUserRepo) UpdateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (*entities.User, error) {
	r.store.users[user.ID] = *user
	updated := *user
	return &updated, nil
}

func (r *memUserRepo) DeactivateUser(ctx context.Context, tx pgx.Tx, id uint64) error {
	u, ok := r.store.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.IsActive = false
	r.store.users[id] = u
	return nil
}

func (r *memUserRepo) CountOpenShipmentsForCreator(ctx context.Context, userID uint64) (int, error) {
	count := 0
	for shipmentID, ids := range r.store.links {
		if !r.store.shipments[shipmentID].Status.IsOpen() {
			continue
		}
		for _, id := range ids {
			if createdBy := r.store.equipments[id].CreatedBy; createdBy != nil && *createdBy == userID {
				count++
				break
			}
		}
	}
	return count, nil
}

var (
	_ repositories.TxManagerInterface           = (*memTxManager)(nil)
	_ repositories.EquipmentRepositoryInterface = (*memEquipmentRepo)(nil)
	_ repositories.ShipmentRepositoryInterface  = (*memShipmentRepo)(nil)
	_ repositories.HistoryRepositoryInterface   = (*memHistoryRepo)(nil)
	_ repositories.ImportLogRepositoryInterface = (*memImportLogRepo)(nil)
	_ repositories.AuditLogRepositoryInterface  = (*memAuditRepo)(nil)
	_ repositories.UserRepositoryInterface      = (*memUserRepo)(nil)
)

// testEnv собирает сервисы поверх одного memStore.
type testEnv struct {
	store      *memStore
	equipments EquipmentServiceInterface
	shipments  ShipmentServiceInterface
	imports    ImportServiceInterface
	exports    ExportServiceInterface
	users      UserServiceInterface
}

func newTestEnv() *testEnv {
	store := newMemStore()
	logger := zap.NewNop()
	tx := &memTxManager{store: store}
	equipmentRepo := &memEquipmentRepo{store: store}
	historyRepo := &memHistoryRepo{store: store}
	audit := NewAuditService(&memAuditRepo{store: store}, logger)

	return &testEnv{
		store:      store,
		equipments: NewEquipmentService(tx, equipmentRepo, historyRepo, audit, logger),
		shipments:  NewShipmentService(tx, &memShipmentRepo{store: store}, equipmentRepo, historyRepo, audit, logger),
		imports:    NewImportService(tx, equipmentRepo, historyRepo, &memImportLogRepo{store: store}, audit, logger),
		exports:    NewExportService(equipmentRepo, audit, logger),
		users:      NewUserService(tx, &memUserRepo{store: store}, audit, logger),
	}
}

func asUser(id uint64, username string, role authz.Role) context.Context {
	return utils.WithIdentity(context.Background(), &authz.Identity{UserID: id, Username: username, Role: role})
}

func adminCtx() context.Context    { return asUser(1, "admin", authz.RoleAdmin) }
func operatorCtx() context.Context { return asUser(2, "operador", authz.RoleOperator) }

// addEquipment кладёт оборудование прямо в хранилище, минуя сервис.
func (env *testEnv) addEquipment(code string, status entities.EquipmentStatus, location string) entities.Equipment {
	e := entities.Equipment{
		ID:       env.store.id(),
		Code:     code,
		Type:     "Notebook",
		Brand:    "Dell",
		Model:    "Latitude 5420",
		Location: location,
		Status:   status,
	}
	env.store.equipments[e.ID] = e
	return e
}

func (env *testEnv) equipment(id uint64) entities.Equipment {
	return env.store.equipments[id]
}

func (env *testEnv) equipmentHistoryFor(id uint64) []entities.EquipmentHistory {
	result := make([]entities.EquipmentHistory, 0)
	for _, h := range env.store.equipmentHistory {
		if h.EquipmentID == id {
			result = append(result, h)
		}
	}
	return result
}

func (env *testEnv) shipmentHistoryFor(id uint64) []entities.ShipmentHistory {
	result := make([]entities.ShipmentHistory, 0)
	for _, h := range env.store.shipmentHistory {
		if h.ShipmentID == id {
			result = append(result, h)
		}
	}
	return result
}

var errInjected = errors.New("сбой записи")

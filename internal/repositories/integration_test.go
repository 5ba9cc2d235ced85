package repositories

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"pem-system/internal/entities"
	"pem-system/pkg/database/postgresql"
	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// RepositoryIntegrationSuite гоняет репозитории на настоящем PostgreSQL.
type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx        context.Context
	container  *postgres.PostgresContainer
	pool       *pgxpool.Pool
	tx         TxManagerInterface
	equipments EquipmentRepositoryInterface
	shipments  ShipmentRepositoryInterface
	histories  HistoryRepositoryInterface
	users      UserRepositoryInterface
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	logger := zap.NewNop()

	container, err := postgres.Run(s.ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("pem_test"),
		postgres.WithUsername("pem"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err, "не удалось запустить PostgreSQL контейнер")
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = postgresql.ConnectDB(s.ctx, dsn, logger)
	s.Require().NoError(err)
	s.Require().NoError(postgresql.Migrate(s.ctx, s.pool, logger))

	s.tx = NewTxManager(s.pool)
	s.equipments = NewEquipmentRepository(s.pool, logger)
	s.shipments = NewShipmentRepository(s.pool, logger)
	s.histories = NewHistoryRepository(s.pool, logger)
	s.users = NewUserRepository(s.pool, logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		if err := s.container.Terminate(s.ctx); err != nil {
			s.T().Logf("Ошибка остановки контейнера: %v", err)
		}
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE audit_logs, import_logs, shipment_history, shipment_equipments,
		shipments, equipment_history, equipments, users RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
	// последовательность номеров не принадлежит таблице и не сбрасывается TRUNCATE
	_, err = s.pool.Exec(s.ctx, "ALTER SEQUENCE shipment_number_seq RESTART WITH 1")
	s.Require().NoError(err)
}

func (s *RepositoryIntegrationSuite) createEquipment(code string) *entities.Equipment {
	created, err := s.equipments.CreateEquipment(s.ctx, nil, &entities.Equipment{
		Code:     code,
		Type:     "Notebook",
		Brand:    "Dell",
		Model:    "Latitude 5420",
		Location: "São Paulo - SP",
		Status:   entities.EquipmentInStock,
	})
	s.Require().NoError(err)
	return created
}

func (s *RepositoryIntegrationSuite) createShipment(tx pgx.Tx, status entities.ShipmentStatus, equipmentIDs ...uint64) *entities.Shipment {
	number, err := s.shipments.NextShipmentNumber(s.ctx, tx)
	s.Require().NoError(err)
	created, err := s.shipments.CreateShipment(s.ctx, tx, &entities.Shipment{
		ShipmentNumber: number,
		Origin:         "São Paulo - SP",
		Destination:    "Curitiba - PR",
		Responsible:    "Carlos",
		Status:         status,
		ShipmentDate:   time.Now(),
	})
	s.Require().NoError(err)
	s.Require().NoError(s.shipments.ReplaceEquipments(s.ctx, tx, created.ID, equipmentIDs))
	return created
}

func (s *RepositoryIntegrationSuite) TestCreateEquipment_DuplicateCodeIsConflict() {
	s.createEquipment("EQ001")

	_, err := s.equipments.CreateEquipment(s.ctx, nil, &entities.Equipment{
		Code: "EQ001", Type: "Monitor", Brand: "LG", Model: "29WK", Location: "Recife - PE", Status: entities.EquipmentInStock,
	})
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *RepositoryIntegrationSuite) TestGetEquipments_FilterSearchAndSort() {
	s.createEquipment("EQ001")
	second := s.createEquipment("EQ002")
	s.Require().NoError(s.equipments.SetStatus(s.ctx, nil, []uint64{second.ID}, entities.EquipmentInMaintenance))
	s.createEquipment("XP003")

	list, total, err := s.equipments.GetEquipments(s.ctx, types.Filter{
		Search: "eq",
		Sort:   map[string]string{"code": "desc"},
		Limit:  10,
	})
	s.Require().NoError(err)
	s.Equal(uint64(2), total)
	s.Require().Len(list, 2)
	s.Equal("EQ002", list[0].Code)

	list, total, err = s.equipments.GetEquipments(s.ctx, types.Filter{
		Filter: map[string]interface{}{"status": "in_maintenance,returned", "unknown": "x"},
		Limit:  10,
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), total)
	s.Equal(second.ID, list[0].ID)
}

// номера уникальны и последовательны даже при параллельном создании
func (s *RepositoryIntegrationSuite) TestShipmentNumbers_ConcurrentUnique() {
	const workers = 10

	var wg sync.WaitGroup
	numbers := make(chan string, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tx.RunInTransaction(s.ctx, func(tx pgx.Tx) error {
				number, err := s.shipments.NextShipmentNumber(s.ctx, tx)
				if err != nil {
					return err
				}
				_, err = s.shipments.CreateShipment(s.ctx, tx, &entities.Shipment{
					ShipmentNumber: number, Origin: "A", Destination: "B", Responsible: "C",
					Status: entities.ShipmentPreparing, ShipmentDate: time.Now(),
				})
				if err == nil {
					numbers <- number
				}
				return err
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	seen := make(map[string]bool)
	for number := range numbers {
		s.False(seen[number], "повтор номера %s", number)
		seen[number] = true
	}
	s.Len(seen, workers)
	s.True(seen[entities.FormatShipmentNumber(1)])
	s.True(seen[entities.FormatShipmentNumber(workers)])
}

// сбой после обновления оборудования откатывает весь приём
func (s *RepositoryIntegrationSuite) TestRunInTransaction_RollsBackReceipt() {
	eq := s.createEquipment("EQ001")
	shipment := s.createShipment(nil, entities.ShipmentShipped, eq.ID)
	failure := errors.New("сбой записи истории")

	err := s.tx.RunInTransaction(s.ctx, func(tx pgx.Tx) error {
		locked, err := s.shipments.FindShipmentForUpdate(s.ctx, tx, shipment.ID)
		if err != nil {
			return err
		}
		locked.Status = entities.ShipmentDelivered
		if _, err := s.shipments.UpdateShipment(s.ctx, tx, locked); err != nil {
			return err
		}
		if err := s.equipments.SetStatusAndLocation(s.ctx, tx, []uint64{eq.ID}, entities.EquipmentReturned, "Curitiba - PR"); err != nil {
			return err
		}
		return failure
	})
	s.ErrorIs(err, failure)

	reloaded, err := s.shipments.FindShipment(s.ctx, shipment.ID)
	s.Require().NoError(err)
	s.Equal(entities.ShipmentShipped, reloaded.Status)

	equipment, err := s.equipments.FindEquipment(s.ctx, eq.ID)
	s.Require().NoError(err)
	s.Equal(entities.EquipmentInStock, equipment.Status)
	s.Equal("São Paulo - SP", equipment.Location)
}

func (s *RepositoryIntegrationSuite) TestRunInSavepoint_IsolatesFailedRecord() {
	failure := errors.New("ошибка записи")

	err := s.tx.RunInTransaction(s.ctx, func(tx pgx.Tx) error {
		if err := RunInSavepoint(s.ctx, tx, func(sp pgx.Tx) error {
			_, err := s.equipments.CreateEquipment(s.ctx, sp, &entities.Equipment{
				Code: "EQ100", Type: "Notebook", Brand: "Dell", Model: "Latitude", Location: "Natal - RN", Status: entities.EquipmentInStock,
			})
			return err
		}); err != nil {
			return err
		}

		spErr := RunInSavepoint(s.ctx, tx, func(sp pgx.Tx) error {
			if _, err := s.equipments.CreateEquipment(s.ctx, sp, &entities.Equipment{
				Code: "EQ101", Type: "Monitor", Brand: "LG", Model: "29WK", Location: "Natal - RN", Status: entities.EquipmentInStock,
			}); err != nil {
				return err
			}
			return failure
		})
		s.ErrorIs(spErr, failure)

		// дубликат внутри точки сохранения не ломает внешнюю транзакцию
		spErr = RunInSavepoint(s.ctx, tx, func(sp pgx.Tx) error {
			_, err := s.equipments.CreateEquipment(s.ctx, sp, &entities.Equipment{
				Code: "EQ100", Type: "Notebook", Brand: "HP", Model: "ProBook", Location: "Natal - RN", Status: entities.EquipmentInStock,
			})
			return err
		})
		s.ErrorIs(spErr, apperrors.ErrConflict)
		return nil
	})
	s.Require().NoError(err)

	_, err = s.equipments.FindEquipmentByCode(s.ctx, nil, "EQ100")
	s.NoError(err)
	_, err = s.equipments.FindEquipmentByCode(s.ctx, nil, "EQ101")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestOpenShipmentQueries() {
	first := s.createEquipment("EQ001")
	second := s.createEquipment("EQ002")
	open := s.createShipment(nil, entities.ShipmentPreparing, first.ID)
	s.createShipment(nil, entities.ShipmentDelivered, second.ID)

	inOpen, err := s.equipments.IsInOpenShipment(s.ctx, nil, first.ID)
	s.Require().NoError(err)
	s.True(inOpen)
	inOpen, err = s.equipments.IsInOpenShipment(s.ctx, nil, second.ID)
	s.Require().NoError(err)
	s.False(inOpen)

	count, err := s.equipments.CountInOpenShipments(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal(1, count)

	codes, err := s.shipments.FindEquipmentInOtherOpenShipments(s.ctx, nil, 0, []uint64{first.ID, second.ID})
	s.Require().NoError(err)
	s.Equal([]string{"EQ001"}, codes)

	codes, err = s.shipments.FindEquipmentInOtherOpenShipments(s.ctx, nil, open.ID, []uint64{first.ID})
	s.Require().NoError(err)
	s.Empty(codes)
}

func (s *RepositoryIntegrationSuite) TestDeleteEquipment_RemovesClosedLinksAndHistory() {
	eq := s.createEquipment("EQ001")
	shipment := s.createShipment(nil, entities.ShipmentDelivered, eq.ID)
	s.Require().NoError(s.histories.CreateEquipmentHistory(s.ctx, nil, &entities.EquipmentHistory{
		EquipmentID: eq.ID, Action: entities.HistoryCreation, Description: "Equipamento criado", Responsible: "admin",
	}))

	s.Require().NoError(s.equipments.DeleteEquipment(s.ctx, nil, eq.ID))

	ids, err := s.shipments.GetEquipmentIDs(s.ctx, nil, shipment.ID)
	s.Require().NoError(err)
	s.Empty(ids)
	history, err := s.histories.GetEquipmentHistory(s.ctx, eq.ID)
	s.Require().NoError(err)
	s.Empty(history)

	s.ErrorIs(s.equipments.DeleteEquipment(s.ctx, nil, eq.ID), apperrors.ErrNotFound)
}

func (s *RepositoryIntegrationSuite) TestFindUserByLogin_CaseInsensitive() {
	email := "maria@empresa.com"
	_, err := s.users.CreateUser(s.ctx, nil, &entities.User{
		Name: "Maria", Username: "maria", Email: &email, Password: "hash", Role: "OPERATOR", IsActive: true,
	})
	s.Require().NoError(err)

	found, err := s.users.FindUserByLogin(s.ctx, "MARIA")
	s.Require().NoError(err)
	s.Equal("maria", found.Username)

	found, err = s.users.FindUserByLogin(s.ctx, "Maria@Empresa.com")
	s.Require().NoError(err)
	s.Equal("maria", found.Username)

	_, err = s.users.CreateUser(s.ctx, nil, &entities.User{Name: "Outra", Username: "maria", Password: "hash", Role: "VIEWER", IsActive: true})
	s.ErrorIs(err, apperrors.ErrConflict)
}

// логин, отличающийся только регистром, занят
func (s *RepositoryIntegrationSuite) TestCreateUser_CaseVariantUsernameIsConflict() {
	first, err := s.users.CreateUser(s.ctx, nil, &entities.User{Name: "Admin", Username: "admin", Password: "hash", Role: "ADMIN", IsActive: true})
	s.Require().NoError(err)

	_, err = s.users.CreateUser(s.ctx, nil, &entities.User{Name: "Outro", Username: "Admin", Password: "hash", Role: "VIEWER", IsActive: true})
	s.ErrorIs(err, apperrors.ErrConflict)

	other, err := s.users.CreateUser(s.ctx, nil, &entities.User{Name: "Joao", Username: "joao", Password: "hash", Role: "VIEWER", IsActive: true})
	s.Require().NoError(err)
	other.Username = "ADMIN"
	_, err = s.users.UpdateUser(s.ctx, nil, other)
	s.ErrorIs(err, apperrors.ErrConflict)

	found, err := s.users.FindUserByLogin(s.ctx, "ADMIN")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)
}

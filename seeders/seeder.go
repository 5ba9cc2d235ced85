package seeders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pem-system/internal/dto"
	"pem-system/internal/entities"
	"pem-system/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Seeder наполняет БД демонстрационными данными. Повторный запуск
// не создаёт дубликатов.
type Seeder struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSeeder(db *pgxpool.Pool, logger *zap.Logger) *Seeder {
	return &Seeder{db: db, logger: logger}
}

// SeedAll - пользователи, затем оборудование и отправки, в одной транзакции.
func (s *Seeder) SeedAll(ctx context.Context) (*dto.SeedResultDTO, error) {
	result := &dto.SeedResultDTO{}
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		users, err := s.seedUsers(ctx, tx)
		if err != nil {
			return fmt.Errorf("ошибка наполнения пользователей: %w", err)
		}
		result.Users = len(users)

		equipments, err := s.seedEquipments(ctx, tx, users)
		if err != nil {
			return fmt.Errorf("ошибка наполнения оборудования: %w", err)
		}
		result.Equipments = len(equipments)

		shipments, err := s.seedShipments(ctx, tx, users, equipments)
		if err != nil {
			return fmt.Errorf("ошибка наполнения отправок: %w", err)
		}
		result.Shipments = shipments
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("SeedAll: демонстрационные данные созданы",
		zap.Int("users", result.Users),
		zap.Int("equipments", result.Equipments),
		zap.Int("shipments", result.Shipments),
	)
	return result, nil
}

// SeedUsers создаёт только учётные записи.
func (s *Seeder) SeedUsers(ctx context.Context) (int, error) {
	var count int
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		users, err := s.seedUsers(ctx, tx)
		count = len(users)
		return err
	})
	return count, err
}

// seedUsers возвращает username -> id для всех демонстрационных пользователей.
func (s *Seeder) seedUsers(ctx context.Context, tx pgx.Tx) (map[string]uint64, error) {
	ids := make(map[string]uint64, len(usersData))
	for _, u := range usersData {
		var id uint64
		err := tx.QueryRow(ctx, "SELECT id FROM users WHERE username = $1", u.Username).Scan(&id)
		if err == nil {
			s.logger.Debug("seedUsers: пользователь уже существует", zap.String("username", u.Username))
			ids[u.Username] = id
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		hash, err := utils.HashPassword(u.Password)
		if err != nil {
			return nil, err
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO users (name, username, email, password_hash, role, is_active)
			 VALUES ($1, $2, $3, $4, $5, TRUE) RETURNING id`,
			u.Name, u.Username, u.Email, hash, u.Role,
		).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids[u.Username] = id
		s.logger.Info("seedUsers: пользователь создан", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	}
	return ids, nil
}

func (s *Seeder) seedEquipments(ctx context.Context, tx pgx.Tx, users map[string]uint64) (map[string]uint64, error) {
	ids := make(map[string]uint64, len(equipmentsData))
	for _, e := range equipmentsData {
		acquisition, err := time.Parse("2006-01-02", e.AcquisitionDate)
		if err != nil {
			return nil, err
		}

		var id uint64
		var inserted bool
		err = tx.QueryRow(ctx,
			`INSERT INTO equipments (code, serial_number, type, brand, model, location, status, acquisition_date, observations, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
			 RETURNING id, (xmax = 0)`,
			e.Code, e.SerialNumber, e.Type, e.Brand, e.Model, e.Location, e.Status, acquisition, e.Observations, users[e.CreatedBy],
		).Scan(&id, &inserted)
		if err != nil {
			return nil, err
		}
		ids[e.Code] = id
		if !inserted {
			continue
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO equipment_history (equipment_id, action, description, location, responsible)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, entities.HistoryCreation, "Equipamento cadastrado no sistema", e.Location, entities.ResponsibleSystem,
		)
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// seedShipments создаёт отправки, только если их ещё нет.
func (s *Seeder) seedShipments(ctx context.Context, tx pgx.Tx, users, equipments map[string]uint64) (int, error) {
	var existing int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM shipments").Scan(&existing); err != nil {
		return 0, err
	}
	if existing > 0 {
		s.logger.Info("seedShipments: отправки уже существуют, пропускаем", zap.Int("count", existing))
		return 0, nil
	}

	for _, sh := range shipmentsData {
		var seq int64
		if err := tx.QueryRow(ctx, "SELECT nextval('shipment_number_seq')").Scan(&seq); err != nil {
			return 0, err
		}

		shipmentDate := time.Now()
		if sh.ShipmentDate != "" {
			parsed, err := time.Parse("2006-01-02", sh.ShipmentDate)
			if err != nil {
				return 0, err
			}
			shipmentDate = parsed
		}
		expected := optionalSeedDate(sh.ExpectedDate)
		if expected == nil {
			fiveDays := time.Now().AddDate(0, 0, 5)
			expected = &fiveDays
		}

		var id uint64
		err := tx.QueryRow(ctx,
			`INSERT INTO shipments (shipment_number, origin, destination, responsible, carrier, tracking_code, status,
			                        shipment_date, expected_date, delivery_date, observations, created_by)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12) RETURNING id`,
			entities.FormatShipmentNumber(seq), sh.Origin, sh.Destination, sh.Responsible, sh.Carrier, sh.TrackingCode,
			sh.Status, shipmentDate, expected, optionalSeedDate(sh.DeliveryDate), sh.Observations, users[sh.CreatedBy],
		).Scan(&id)
		if err != nil {
			return 0, err
		}

		if equipmentID, ok := equipments[sh.EquipmentCode]; ok {
			if _, err := tx.Exec(ctx,
				"INSERT INTO shipment_equipments (shipment_id, equipment_id) VALUES ($1, $2)", id, equipmentID,
			); err != nil {
				return 0, err
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO shipment_history (shipment_id, action, description, responsible) VALUES ($1, $2, $3, $4)`,
			id, entities.HistoryCreation, "Remessa criada no sistema", sh.Responsible,
		); err != nil {
			return 0, err
		}
	}
	return len(shipmentsData), nil
}

func optionalSeedDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}

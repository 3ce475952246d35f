package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"simledger/internal/models"
	"simledger/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL, applies the embedded migrations
// and empties the ledger tables. The test is skipped when no URL is set.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	logger := zap.NewNop()
	if err := database.Migrate(connString, logger); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	pool, err := database.NewPool(context.Background(), connString, logger)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	db := &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
	TruncateLedger(t, db)
	return db
}

// TruncateLedger removes every row from the ledger tables
func TruncateLedger(t *testing.T, db *TestDB) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(), `TRUNCATE historial_cambios, envios, distribuidores`)
	if err != nil {
		t.Fatalf("Failed to truncate ledger tables: %v", err)
	}
}

// SetupTestDistributor creates an active distributor with the given code
func SetupTestDistributor(t *testing.T, db *TestDB, codigoBT, nombre string) *models.Distributor {
	t.Helper()

	d := &models.Distributor{
		ID:        uuid.New(),
		CodigoBT:  codigoBT,
		Nombre:    nombre,
		Plaza:     "Querétaro",
		Estatus:   models.DistributorActive,
		FechaAlta: time.Now().UTC().Truncate(24 * time.Hour),
	}
	query := `
		INSERT INTO distribuidores (id, codigo_bt, nombre, plaza, estatus, fecha_alta)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := db.Pool.Exec(context.Background(), query, d.ID, d.CodigoBT, d.Nombre, d.Plaza, d.Estatus, d.FechaAlta)
	if err != nil {
		t.Fatalf("Failed to create test distributor: %v", err)
	}
	return d
}

// SetupTestEnvio records an ACTIVO assignment of iccid to d
func SetupTestEnvio(t *testing.T, db *TestDB, d *models.Distributor, iccid string) *models.Envio {
	t.Helper()

	e := &models.Envio{
		ID:                 uuid.New(),
		ICCID:              iccid,
		DistribuidorID:     &d.ID,
		CodigoBT:           d.CodigoBT,
		NombreDistribuidor: d.Nombre,
		FechaEnvio:         time.Now().UTC().Truncate(24 * time.Hour),
		Estatus:            models.EnvioActive,
		UsuarioCaptura:     "test",
	}
	query := `
		INSERT INTO envios (id, iccid, distribuidor_id, codigo_bt, nombre_distribuidor, fecha_envio, estatus, usuario_captura)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := db.Pool.QueryRow(context.Background(), query, e.ID, e.ICCID, e.DistribuidorID, e.CodigoBT,
		e.NombreDistribuidor, e.FechaEnvio, e.Estatus, e.UsuarioCaptura).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test envio: %v", err)
	}
	return e
}

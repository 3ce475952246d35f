package repositories

import (
	"context"
	"fmt"
	"time"

	"simledger/internal/models"

	"github.com/google/uuid"
)

type EnvioRepository interface {
	ExistingICCIDs(ctx context.Context, iccids []string) ([]string, error)
	InsertBatch(ctx context.Context, envios []*models.Envio) (int64, error)
	Insert(ctx context.Context, envio *models.Envio) error
	GetLatestByICCID(ctx context.Context, iccid string) (*models.Envio, error)
	GetLatestByICCIDForUpdate(ctx context.Context, iccid string) (*models.Envio, error)
	LatestByICCIDs(ctx context.Context, iccids []string) ([]*models.Envio, error)
	ListByICCID(ctx context.Context, iccid string) ([]*models.Envio, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, estatus string, observaciones *string) error
	UpdateDistributor(ctx context.Context, id uuid.UUID, snapshot models.DistributorSnapshot, note string, appendNote bool) error
	UpdateFechaEnvio(ctx context.Context, id uuid.UUID, fecha time.Time, note string) error
	DeleteByICCID(ctx context.Context, iccid string) (int64, error)
	Search(ctx context.Context, filter models.EnvioFilter) ([]*models.Envio, error)
	ListByDistributor(ctx context.Context, codigoBT, estatus string) ([]*models.Envio, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountSince(ctx context.Context, estatus string, since time.Time) (int, error)
	DailyCounts(ctx context.Context, estatus string, from, to time.Time) ([]models.DailyCount, error)
	TopDistributors(ctx context.Context, estatus string, from, to *time.Time, limit int) ([]models.DistributorCount, error)
	OrphanedReassignments(ctx context.Context, limit int) ([]string, error)
}

type envioRepo struct {
	db DBTX
}

func NewEnvioRepository(db DBTX) EnvioRepository {
	return &envioRepo{db: db}
}

const envioColumns = `id, iccid, distribuidor_id, codigo_bt, nombre_distribuidor, fecha_envio, estatus, observaciones, usuario_captura, created_at, updated_at`

// latestOrder resolves "the" row of an ICCID when several exist.
const latestOrder = `ORDER BY created_at DESC, id DESC`

func scanEnvio(row rowScanner) (*models.Envio, error) {
	e := &models.Envio{}
	err := row.Scan(&e.ID, &e.ICCID, &e.DistribuidorID, &e.CodigoBT, &e.NombreDistribuidor, &e.FechaEnvio,
		&e.Estatus, &e.Observaciones, &e.UsuarioCaptura, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *envioRepo) list(ctx context.Context, sql string, args ...interface{}) ([]*models.Envio, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	envios := []*models.Envio{}
	for rows.Next() {
		e, err := scanEnvio(rows)
		if err != nil {
			return nil, err
		}
		envios = append(envios, e)
	}
	return envios, rows.Err()
}

func (r *envioRepo) ExistingICCIDs(ctx context.Context, iccids []string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT iccid FROM envios WHERE iccid = ANY($1)`, iccids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := []string{}
	for rows.Next() {
		var iccid string
		if err := rows.Scan(&iccid); err != nil {
			return nil, err
		}
		existing = append(existing, iccid)
	}
	return existing, rows.Err()
}

// InsertBatch inserts every envío in one statement. Rows whose ICCID already
// holds an ACTIVO assignment are skipped; the returned count excludes them.
func (r *envioRepo) InsertBatch(ctx context.Context, envios []*models.Envio) (int64, error) {
	if len(envios) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(envios))
	iccids := make([]string, len(envios))
	distributorIDs := make([]*uuid.UUID, len(envios))
	codes := make([]string, len(envios))
	names := make([]string, len(envios))
	fechas := make([]time.Time, len(envios))
	statuses := make([]string, len(envios))
	notes := make([]*string, len(envios))
	actors := make([]string, len(envios))
	for i, e := range envios {
		ids[i] = e.ID
		iccids[i] = e.ICCID
		distributorIDs[i] = e.DistribuidorID
		codes[i] = e.CodigoBT
		names[i] = e.NombreDistribuidor
		fechas[i] = e.FechaEnvio
		statuses[i] = e.Estatus
		notes[i] = e.Observaciones
		actors[i] = e.UsuarioCaptura
	}

	query := `
		INSERT INTO envios (id, iccid, distribuidor_id, codigo_bt, nombre_distribuidor, fecha_envio, estatus, observaciones, usuario_captura)
		SELECT * FROM unnest($1::uuid[], $2::text[], $3::uuid[], $4::text[], $5::text[], $6::date[], $7::text[], $8::text[], $9::text[])
		ON CONFLICT (iccid) WHERE estatus = 'ACTIVO' DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, ids, iccids, distributorIDs, codes, names, fechas, statuses, notes, actors)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *envioRepo) Insert(ctx context.Context, envio *models.Envio) error {
	query := `
		INSERT INTO envios (id, iccid, distribuidor_id, codigo_bt, nombre_distribuidor, fecha_envio, estatus, observaciones, usuario_captura)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, envio.ID, envio.ICCID, envio.DistribuidorID, envio.CodigoBT, envio.NombreDistribuidor,
		envio.FechaEnvio, envio.Estatus, envio.Observaciones, envio.UsuarioCaptura).Scan(&envio.CreatedAt, &envio.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *envioRepo) GetLatestByICCID(ctx context.Context, iccid string) (*models.Envio, error) {
	query := `SELECT ` + envioColumns + ` FROM envios WHERE iccid = $1 ` + latestOrder + ` LIMIT 1`
	e, err := scanEnvio(r.db.QueryRow(ctx, query, iccid))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// GetLatestByICCIDForUpdate locks the latest row; only meaningful inside a transaction.
func (r *envioRepo) GetLatestByICCIDForUpdate(ctx context.Context, iccid string) (*models.Envio, error) {
	query := `SELECT ` + envioColumns + ` FROM envios WHERE iccid = $1 ` + latestOrder + ` LIMIT 1 FOR UPDATE`
	e, err := scanEnvio(r.db.QueryRow(ctx, query, iccid))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r *envioRepo) LatestByICCIDs(ctx context.Context, iccids []string) ([]*models.Envio, error) {
	query := `
		SELECT DISTINCT ON (iccid) ` + envioColumns + `
		FROM envios
		WHERE iccid = ANY($1)
		ORDER BY iccid, created_at DESC, id DESC
	`
	return r.list(ctx, query, iccids)
}

func (r *envioRepo) ListByICCID(ctx context.Context, iccid string) ([]*models.Envio, error) {
	return r.list(ctx, `SELECT `+envioColumns+` FROM envios WHERE iccid = $1 `+latestOrder, iccid)
}

// UpdateStatus sets the status; a nil observaciones keeps the stored note.
func (r *envioRepo) UpdateStatus(ctx context.Context, id uuid.UUID, estatus string, observaciones *string) error {
	query := `
		UPDATE envios
		SET estatus = $1, observaciones = COALESCE($2, observaciones), updated_at = NOW()
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, estatus, observaciones, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDistributor rewrites the distributor snapshot of one row. With appendNote
// the note is joined to the existing observaciones, otherwise it replaces them.
func (r *envioRepo) UpdateDistributor(ctx context.Context, id uuid.UUID, snapshot models.DistributorSnapshot, note string, appendNote bool) error {
	query := `
		UPDATE envios
		SET distribuidor_id = $1, codigo_bt = $2, nombre_distribuidor = $3,
			observaciones = CASE WHEN $4::boolean AND COALESCE(observaciones, '') <> '' THEN observaciones || ' | ' || $5::text ELSE $5::text END,
			updated_at = NOW()
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query, snapshot.ID, snapshot.CodigoBT, snapshot.Nombre, appendNote, note, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateFechaEnvio overwrites the shipment date and appends note to observaciones.
func (r *envioRepo) UpdateFechaEnvio(ctx context.Context, id uuid.UUID, fecha time.Time, note string) error {
	query := `
		UPDATE envios
		SET fecha_envio = $1,
			observaciones = CASE WHEN COALESCE(observaciones, '') <> '' THEN observaciones || ' | ' || $2::text ELSE $2::text END,
			updated_at = NOW()
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, fecha, note, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *envioRepo) DeleteByICCID(ctx context.Context, iccid string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM envios WHERE iccid = $1`, iccid)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *envioRepo) Search(ctx context.Context, filter models.EnvioFilter) ([]*models.Envio, error) {
	sql := `SELECT ` + envioColumns + ` FROM envios WHERE 1=1`
	args := []interface{}{}

	if filter.ICCID != "" {
		args = append(args, "%"+filter.ICCID+"%")
		sql += fmt.Sprintf(` AND iccid ILIKE $%d`, len(args))
	}
	if filter.CodigoBT != "" {
		args = append(args, "%"+filter.CodigoBT+"%")
		sql += fmt.Sprintf(` AND codigo_bt ILIKE $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		sql += fmt.Sprintf(` AND fecha_envio >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		sql += fmt.Sprintf(` AND fecha_envio <= $%d`, len(args))
	}
	if filter.Estatus != "" {
		args = append(args, filter.Estatus)
		sql += fmt.Sprintf(` AND estatus = $%d`, len(args))
	}
	sql += ` ` + latestOrder

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sql += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	return r.list(ctx, sql, args...)
}

func (r *envioRepo) ListByDistributor(ctx context.Context, codigoBT, estatus string) ([]*models.Envio, error) {
	query := `SELECT ` + envioColumns + ` FROM envios WHERE codigo_bt = $1 AND estatus = $2 ORDER BY fecha_envio DESC, created_at DESC`
	return r.list(ctx, query, codigoBT, estatus)
}

func (r *envioRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT estatus, COUNT(*) FROM envios GROUP BY estatus`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var estatus string
		var count int
		if err := rows.Scan(&estatus, &count); err != nil {
			return nil, err
		}
		counts[estatus] = count
	}
	return counts, rows.Err()
}

func (r *envioRepo) CountSince(ctx context.Context, estatus string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM envios WHERE estatus = $1 AND fecha_envio >= $2`, estatus, since).Scan(&count)
	return count, err
}

// DailyCounts groups envíos per fecha_envio within [from, to]. Days without
// envíos are absent from the result.
func (r *envioRepo) DailyCounts(ctx context.Context, estatus string, from, to time.Time) ([]models.DailyCount, error) {
	query := `
		SELECT fecha_envio, COUNT(*)
		FROM envios
		WHERE estatus = $1 AND fecha_envio >= $2 AND fecha_envio <= $3
		GROUP BY fecha_envio
		ORDER BY fecha_envio ASC
	`
	rows, err := r.db.Query(ctx, query, estatus, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.DailyCount{}
	for rows.Next() {
		var dc models.DailyCount
		if err := rows.Scan(&dc.Fecha, &dc.Cantidad); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

func (r *envioRepo) TopDistributors(ctx context.Context, estatus string, from, to *time.Time, limit int) ([]models.DistributorCount, error) {
	sql := `SELECT codigo_bt, MAX(nombre_distribuidor), COUNT(*) FROM envios WHERE 1=1`
	args := []interface{}{}

	if estatus != "" {
		args = append(args, estatus)
		sql += fmt.Sprintf(` AND estatus = $%d`, len(args))
	}
	if from != nil {
		args = append(args, *from)
		sql += fmt.Sprintf(` AND fecha_envio >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		sql += fmt.Sprintf(` AND fecha_envio <= $%d`, len(args))
	}
	args = append(args, limit)
	sql += fmt.Sprintf(` GROUP BY codigo_bt ORDER BY COUNT(*) DESC, codigo_bt ASC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := []models.DistributorCount{}
	for rows.Next() {
		var dc models.DistributorCount
		if err := rows.Scan(&dc.CodigoBT, &dc.NombreDistribuidor, &dc.Total); err != nil {
			return nil, err
		}
		top = append(top, dc)
	}
	return top, rows.Err()
}

// OrphanedReassignments lists ICCIDs whose latest row is REASIGNADO, i.e. a
// reassignment that never produced its replacement ACTIVO row.
func (r *envioRepo) OrphanedReassignments(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT iccid FROM (
			SELECT DISTINCT ON (iccid) iccid, estatus
			FROM envios
			ORDER BY iccid, created_at DESC, id DESC
		) latest
		WHERE estatus = 'REASIGNADO'
		ORDER BY iccid
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	iccids := []string{}
	for rows.Next() {
		var iccid string
		if err := rows.Scan(&iccid); err != nil {
			return nil, err
		}
		iccids = append(iccids, iccid)
	}
	return iccids, rows.Err()
}

package repositories

import (
	"context"
	"fmt"

	"simledger/internal/models"

	"github.com/google/uuid"
)

type DistributorRepository interface {
	Create(ctx context.Context, distributor *models.Distributor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error)
	GetByCode(ctx context.Context, codigoBT string) (*models.Distributor, error)
	Update(ctx context.Context, distributor *models.Distributor) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query, estatus string, limit int) ([]*models.Distributor, error)
	ListAll(ctx context.Context) ([]*models.Distributor, error)
	LastCode(ctx context.Context) (string, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type distributorRepo struct {
	db DBTX
}

func NewDistributorRepository(db DBTX) DistributorRepository {
	return &distributorRepo{db: db}
}

const distributorColumns = `id, codigo_bt, nombre, plaza, telefono, email, estatus, fecha_alta, fecha_modificacion`

func scanDistributor(row rowScanner) (*models.Distributor, error) {
	d := &models.Distributor{}
	err := row.Scan(&d.ID, &d.CodigoBT, &d.Nombre, &d.Plaza, &d.Telefono, &d.Email, &d.Estatus, &d.FechaAlta, &d.FechaModificacion)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *distributorRepo) Create(ctx context.Context, distributor *models.Distributor) error {
	query := `
		INSERT INTO distribuidores (id, codigo_bt, nombre, plaza, telefono, email, estatus, fecha_alta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, distributor.ID, distributor.CodigoBT, distributor.Nombre, distributor.Plaza, distributor.Telefono, distributor.Email, distributor.Estatus, distributor.FechaAlta)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *distributorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	query := `SELECT ` + distributorColumns + ` FROM distribuidores WHERE id = $1`
	d, err := scanDistributor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (r *distributorRepo) GetByCode(ctx context.Context, codigoBT string) (*models.Distributor, error) {
	query := `SELECT ` + distributorColumns + ` FROM distribuidores WHERE codigo_bt = $1`
	d, err := scanDistributor(r.db.QueryRow(ctx, query, codigoBT))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (r *distributorRepo) Update(ctx context.Context, distributor *models.Distributor) error {
	query := `
		UPDATE distribuidores
		SET codigo_bt = $1, nombre = $2, plaza = $3, telefono = $4, email = $5, estatus = $6, fecha_modificacion = $7
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query, distributor.CodigoBT, distributor.Nombre, distributor.Plaza, distributor.Telefono, distributor.Email, distributor.Estatus, distributor.FechaModificacion, distributor.ID)
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

func (r *distributorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM distribuidores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Search matches query case-insensitively against code, name and city. An empty
// query matches every distributor; an empty estatus disables the status filter.
func (r *distributorRepo) Search(ctx context.Context, query, estatus string, limit int) ([]*models.Distributor, error) {
	sql := `SELECT ` + distributorColumns + ` FROM distribuidores WHERE 1=1`
	args := []interface{}{}

	if estatus != "" {
		args = append(args, estatus)
		sql += fmt.Sprintf(` AND estatus = $%d`, len(args))
	}
	if query != "" {
		args = append(args, "%"+query+"%")
		n := len(args)
		sql += fmt.Sprintf(` AND (codigo_bt ILIKE $%d OR nombre ILIKE $%d OR plaza ILIKE $%d)`, n, n, n)
	}
	args = append(args, limit)
	sql += fmt.Sprintf(` ORDER BY codigo_bt ASC LIMIT $%d`, len(args))

	return r.list(ctx, sql, args...)
}

func (r *distributorRepo) ListAll(ctx context.Context) ([]*models.Distributor, error) {
	return r.list(ctx, `SELECT `+distributorColumns+` FROM distribuidores ORDER BY codigo_bt ASC`)
}

func (r *distributorRepo) list(ctx context.Context, sql string, args ...interface{}) ([]*models.Distributor, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	distributors := []*models.Distributor{}
	for rows.Next() {
		d, err := scanDistributor(rows)
		if err != nil {
			return nil, err
		}
		distributors = append(distributors, d)
	}
	return distributors, rows.Err()
}

// LastCode returns the lexicographically greatest codigo_bt, or "" when the table is empty.
func (r *distributorRepo) LastCode(ctx context.Context) (string, error) {
	var code string
	err := r.db.QueryRow(ctx, `SELECT codigo_bt FROM distribuidores ORDER BY codigo_bt DESC LIMIT 1`).Scan(&code)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return code, nil
}

func (r *distributorRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT estatus, COUNT(*) FROM distribuidores GROUP BY estatus`)
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

package repositories

import (
	"context"

	"simledger/internal/models"
)

// HistoryRepository is append-only: entries are never updated or deleted.
type HistoryRepository interface {
	Create(ctx context.Context, entry *models.HistorialCambio) error
	ListByICCID(ctx context.Context, iccid string) ([]*models.HistorialCambio, error)
}

type historyRepo struct {
	db DBTX
}

func NewHistoryRepository(db DBTX) HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Create(ctx context.Context, entry *models.HistorialCambio) error {
	query := `
		INSERT INTO historial_cambios (id, envio_id, tipo_cambio, distribuidor_anterior_id, distribuidor_nuevo_id,
			codigo_bt_anterior, codigo_bt_nuevo, motivo, usuario)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, entry.ID, entry.EnvioID, entry.TipoCambio, entry.DistribuidorAnteriorID,
		entry.DistribuidorNuevoID, entry.CodigoBTAnterior, entry.CodigoBTNuevo, entry.Motivo, entry.Usuario).Scan(&entry.CreatedAt)
}

// ListByICCID returns the entries attached to any row of the ICCID, newest first.
func (r *historyRepo) ListByICCID(ctx context.Context, iccid string) ([]*models.HistorialCambio, error) {
	query := `
		SELECT h.id, h.envio_id, h.tipo_cambio, h.distribuidor_anterior_id, h.distribuidor_nuevo_id,
			h.codigo_bt_anterior, h.codigo_bt_nuevo, h.motivo, h.usuario, h.created_at
		FROM historial_cambios h
		JOIN envios e ON e.id = h.envio_id
		WHERE e.iccid = $1
		ORDER BY h.created_at DESC
	`
	return r.list(ctx, query, iccid)
}

func (r *historyRepo) list(ctx context.Context, sql string, args ...interface{}) ([]*models.HistorialCambio, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*models.HistorialCambio{}
	for rows.Next() {
		h := &models.HistorialCambio{}
		if err := rows.Scan(&h.ID, &h.EnvioID, &h.TipoCambio, &h.DistribuidorAnteriorID, &h.DistribuidorNuevoID,
			&h.CodigoBTAnterior, &h.CodigoBTNuevo, &h.Motivo, &h.Usuario, &h.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

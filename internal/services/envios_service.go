package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"simledger/internal/caching"
	"simledger/internal/common"
	"simledger/internal/models"
	"simledger/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultActor labels writes made without an authenticated operator.
const DefaultActor = "Sistema"

// Observation markers written to envios.observaciones.
const (
	markerCorrected     = "CORREGIDO"
	markerReassigned    = "REASIGNADO"
	markerDateCorrected = "FECHA CORREGIDA"
	markerCancelled     = "CANCELADO"
)

type EnvioService interface {
	Capture(ctx context.Context, req models.CaptureRequest) (*models.CaptureResult, error)
	Correct(ctx context.Context, iccid string, snapshot models.DistributorSnapshot, reason, actor string) (*models.Envio, error)
	CorrectMany(ctx context.Context, iccids []string, snapshot models.DistributorSnapshot, reason, actor string) (*models.BulkOperationResult, error)
	Reassign(ctx context.Context, iccid string, snapshot models.DistributorSnapshot, reason, actor string) (*models.ReassignmentResult, error)
	ReassignMany(ctx context.Context, iccids []string, snapshot models.DistributorSnapshot, reason, actor string) (*models.BulkOperationResult, error)
	DeleteMany(ctx context.Context, iccids []string, actor string) (*models.DeleteResult, error)
	CorrectDates(ctx context.Context, iccids []string, fecha time.Time, reason, actor string) (*models.DateCorrectionResult, error)
	Cancel(ctx context.Context, iccid, reason, actor string) (*models.Envio, error)
	GetByICCID(ctx context.Context, iccid string) (*models.Envio, error)
	History(ctx context.Context, iccid string) (*models.EnvioHistory, error)
	ActiveCandidates(ctx context.Context, raw []string) (*models.ActiveCandidates, error)
}

type envioService struct {
	envioRepo    repositories.EnvioRepository
	historyRepo  repositories.HistoryRepository
	tx           repositories.TxRunner
	cache        caching.CacheService
	clock        common.Clock
	logger       *zap.Logger
	defaultActor string
}

// NewEnvioService builds the assignment ledger. cache may be nil; an empty
// defaultActor falls back to DefaultActor.
func NewEnvioService(
	envioRepo repositories.EnvioRepository,
	historyRepo repositories.HistoryRepository,
	tx repositories.TxRunner,
	cache caching.CacheService,
	clock common.Clock,
	logger *zap.Logger,
	defaultActor string,
) EnvioService {
	if defaultActor == "" {
		defaultActor = DefaultActor
	}
	return &envioService{
		envioRepo:    envioRepo,
		historyRepo:  historyRepo,
		tx:           tx,
		cache:        cache,
		clock:        clock,
		logger:       logger,
		defaultActor: defaultActor,
	}
}

// Capture registers every ICCID in req that the store does not hold yet.
// ICCIDs already present, repeated within the submission, or beaten to the
// insert by a concurrent capture are counted as duplicates. A failing store
// batch is reported in Errors, its ICCIDs are listed in Failed, and the
// remaining batches still run.
func (s *envioService) Capture(ctx context.Context, req models.CaptureRequest) (*models.CaptureResult, error) {
	snapshot, err := normalizeSnapshot(req.Distribuidor)
	if err != nil {
		return nil, err
	}
	candidates := ParseICCIDs(req.ICCIDs...)
	if len(candidates) == 0 {
		return nil, ErrNoICCIDs
	}

	result := &models.CaptureResult{
		TotalCandidates: len(candidates),
		Errors:          []string{},
		Duplicates:      []string{},
		Failed:          []string{},
	}

	unique, repeated := dedupe(candidates)
	result.DuplicateCount += len(repeated)
	result.Duplicates = append(result.Duplicates, repeated...)

	existing := make(map[string]struct{})
	unchecked := make(map[string]struct{})
	for i, batch := range chunk(unique, existenceChunkSize) {
		found, err := s.envioRepo.ExistingICCIDs(ctx, batch)
		if err != nil {
			ledgerBatchErrorsTotal.WithLabelValues("capture").Inc()
			result.Errors = append(result.Errors, fmt.Sprintf("existence check batch %d: %v", i+1, err))
			for _, iccid := range batch {
				unchecked[iccid] = struct{}{}
			}
			result.Failed = append(result.Failed, batch...)
			continue
		}
		for _, iccid := range found {
			existing[iccid] = struct{}{}
		}
	}

	fecha := s.clock.Today()
	if req.FechaEnvio != nil {
		fecha = common.DateOnly(req.FechaEnvio.In(s.clock.Location()))
	}
	actor := s.actor(req.Usuario)

	staged := make([]*models.Envio, 0, len(unique))
	for _, iccid := range unique {
		if _, ok := unchecked[iccid]; ok {
			continue
		}
		if _, ok := existing[iccid]; ok {
			result.DuplicateCount++
			result.Duplicates = append(result.Duplicates, iccid)
			continue
		}
		distributorID := snapshot.ID
		staged = append(staged, &models.Envio{
			ID:                 uuid.New(),
			ICCID:              iccid,
			DistribuidorID:     &distributorID,
			CodigoBT:           snapshot.CodigoBT,
			NombreDistribuidor: snapshot.Nombre,
			FechaEnvio:         fecha,
			Estatus:            models.EnvioActive,
			Observaciones:      trimmedOrNil(req.Observaciones),
			UsuarioCaptura:     actor,
		})
	}

	for i, batch := range chunk(staged, insertChunkSize) {
		inserted, err := s.envioRepo.InsertBatch(ctx, batch)
		if err != nil {
			ledgerBatchErrorsTotal.WithLabelValues("capture").Inc()
			result.Errors = append(result.Errors, fmt.Sprintf("insert batch %d: %v", i+1, err))
			for _, e := range batch {
				result.Failed = append(result.Failed, e.ICCID)
			}
			continue
		}
		result.InsertedCount += int(inserted)
		result.DuplicateCount += len(batch) - int(inserted)
	}

	countItems("capture", outcomeInserted, result.InsertedCount)
	countItems("capture", outcomeDuplicate, result.DuplicateCount)
	countItems("capture", outcomeFailed, len(result.Failed))
	if result.InsertedCount > 0 {
		s.invalidate(ctx)
	}

	s.logger.Info("bulk capture finished",
		zap.String("codigo_bt", snapshot.CodigoBT),
		zap.String("actor", actor),
		zap.Int("total_candidates", result.TotalCandidates),
		zap.Int("inserted", result.InsertedCount),
		zap.Int("duplicates", result.DuplicateCount),
		zap.Int("failed", len(result.Failed)),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// Correct rewrites the distributor of the latest row for iccid in place. The
// status is left unchanged and no history entry is written.
func (s *envioService) Correct(ctx context.Context, iccid string, snapshot models.DistributorSnapshot, reason, actor string) (*models.Envio, error) {
	snapshot, err := normalizeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	e, err := s.correct(ctx, iccid, snapshot, reason, false)
	if err != nil {
		return nil, err
	}
	countItems("correction", outcomeSuccess, 1)
	s.invalidate(ctx)
	s.logger.Info("envio corrected", zap.String("iccid", e.ICCID), zap.String("codigo_bt", snapshot.CodigoBT), zap.String("actor", s.actor(actor)))
	return e, nil
}

func (s *envioService) CorrectMany(ctx context.Context, iccids []string, snapshot models.DistributorSnapshot, reason, actor string) (*models.BulkOperationResult, error) {
	snapshot, err := normalizeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	candidates, _ := dedupe(ParseICCIDs(iccids...))
	if len(candidates) == 0 {
		return nil, ErrNoICCIDs
	}

	result := s.runBulk(ctx, "correction", candidates, func(iccid string) error {
		_, err := s.correct(ctx, iccid, snapshot, reason, true)
		return err
	})
	s.logger.Info("bulk correction finished",
		zap.String("codigo_bt", snapshot.CodigoBT),
		zap.String("actor", s.actor(actor)),
		zap.Int("processed", result.ProcessedItems),
		zap.Int("failed", result.FailedItems),
	)
	return result, nil
}

func (s *envioService) correct(ctx context.Context, iccid string, snapshot models.DistributorSnapshot, reason string, appendNote bool) (*models.Envio, error) {
	e, err := s.latest(ctx, iccid)
	if err != nil {
		return nil, err
	}

	note := marker(markerCorrected, reason)
	if err := s.envioRepo.UpdateDistributor(ctx, e.ID, snapshot, note, appendNote); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEnvioNotFound
		}
		return nil, fmt.Errorf("failed to correct envio %s: %w", e.ICCID, err)
	}

	distributorID := snapshot.ID
	e.DistribuidorID = &distributorID
	e.CodigoBT = snapshot.CodigoBT
	e.NombreDistribuidor = snapshot.Nombre
	e.Observaciones = joinNote(e.Observaciones, note, appendNote)
	e.UpdatedAt = s.clock.Now()
	return e, nil
}

// Reassign retires the latest row for iccid and creates its replacement inside
// one transaction: the old row becomes REASIGNADO, a history entry is appended
// and a new ACTIVO row dated today is inserted. Either all three happen or none.
func (s *envioService) Reassign(ctx context.Context, iccid string, snapshot models.DistributorSnapshot, reason, actor string) (*models.ReassignmentResult, error) {
	snapshot, err := normalizeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	result, err := s.reassign(ctx, iccid, snapshot, reason, s.actor(actor))
	if err != nil {
		return nil, err
	}
	countItems("reassignment", outcomeSuccess, 1)
	s.invalidate(ctx)
	s.logger.Info("envio reassigned",
		zap.String("iccid", result.NewAssignment.ICCID),
		zap.String("from", result.HistoryEntry.CodigoBTAnterior),
		zap.String("to", result.HistoryEntry.CodigoBTNuevo),
		zap.String("actor", result.HistoryEntry.Usuario),
	)
	return result, nil
}

func (s *envioService) ReassignMany(ctx context.Context, iccids []string, snapshot models.DistributorSnapshot, reason, actor string) (*models.BulkOperationResult, error) {
	snapshot, err := normalizeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	candidates, _ := dedupe(ParseICCIDs(iccids...))
	if len(candidates) == 0 {
		return nil, ErrNoICCIDs
	}

	actor = s.actor(actor)
	result := s.runBulk(ctx, "reassignment", candidates, func(iccid string) error {
		_, err := s.reassign(ctx, iccid, snapshot, reason, actor)
		return err
	})
	s.logger.Info("bulk reassignment finished",
		zap.String("codigo_bt", snapshot.CodigoBT),
		zap.String("actor", actor),
		zap.Int("processed", result.ProcessedItems),
		zap.Int("failed", result.FailedItems),
	)
	return result, nil
}

func (s *envioService) reassign(ctx context.Context, iccid string, snapshot models.DistributorSnapshot, reason, actor string) (*models.ReassignmentResult, error) {
	iccid = normalizeICCID(iccid)
	if iccid == "" {
		return nil, ErrNoICCIDs
	}

	var result *models.ReassignmentResult
	err := s.tx.WithinTx(ctx, func(stores repositories.TxStores) error {
		previous, err := stores.Envios.GetLatestByICCIDForUpdate(ctx, iccid)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEnvioNotFound
			}
			return fmt.Errorf("failed to load envio %s: %w", iccid, err)
		}

		if err := stores.Envios.UpdateStatus(ctx, previous.ID, models.EnvioReassigned, nil); err != nil {
			return fmt.Errorf("failed to retire envio %s: %w", iccid, err)
		}
		previous.Estatus = models.EnvioReassigned
		previous.UpdatedAt = s.clock.Now()

		distributorID := snapshot.ID
		entry := &models.HistorialCambio{
			ID:                     uuid.New(),
			EnvioID:                previous.ID,
			TipoCambio:             models.ChangeReassignment,
			DistribuidorAnteriorID: previous.DistribuidorID,
			DistribuidorNuevoID:    &distributorID,
			CodigoBTAnterior:       previous.CodigoBT,
			CodigoBTNuevo:          snapshot.CodigoBT,
			Motivo:                 reason,
			Usuario:                actor,
		}
		if err := stores.History.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record history for %s: %w", iccid, err)
		}

		note := marker(markerReassigned, reason)
		replacement := &models.Envio{
			ID:                 uuid.New(),
			ICCID:              iccid,
			DistribuidorID:     &distributorID,
			CodigoBT:           snapshot.CodigoBT,
			NombreDistribuidor: snapshot.Nombre,
			FechaEnvio:         s.clock.Today(),
			Estatus:            models.EnvioActive,
			Observaciones:      &note,
			UsuarioCaptura:     actor,
		}
		if err := stores.Envios.Insert(ctx, replacement); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrActiveAssignmentExists
			}
			return fmt.Errorf("failed to create replacement envio for %s: %w", iccid, err)
		}

		result = &models.ReassignmentResult{
			PreviousAssignment: previous,
			NewAssignment:      replacement,
			HistoryEntry:       entry,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteMany permanently removes every row of each ICCID. Nothing is kept.
func (s *envioService) DeleteMany(ctx context.Context, iccids []string, actor string) (*models.DeleteResult, error) {
	candidates, _ := dedupe(ParseICCIDs(iccids...))
	if len(candidates) == 0 {
		return nil, ErrNoICCIDs
	}

	result := &models.DeleteResult{
		Eliminated: []string{},
		NotFound:   []string{},
		Errors:     []models.BulkOperationError{},
	}

	existing := make(map[string]struct{})
	failed := make(map[string]string)
	for _, batch := range chunk(candidates, existenceChunkSize) {
		found, err := s.envioRepo.ExistingICCIDs(ctx, batch)
		if err != nil {
			ledgerBatchErrorsTotal.WithLabelValues("delete").Inc()
			for _, iccid := range batch {
				failed[iccid] = err.Error()
			}
			continue
		}
		for _, iccid := range found {
			existing[iccid] = struct{}{}
		}
	}

	for i, iccid := range candidates {
		if msg, ok := failed[iccid]; ok {
			result.Errors = append(result.Errors, models.BulkOperationError{ItemIndex: i, ICCID: iccid, Error: msg})
			continue
		}
		if _, ok := existing[iccid]; !ok {
			result.NotFound = append(result.NotFound, iccid)
			continue
		}
		n, err := s.envioRepo.DeleteByICCID(ctx, iccid)
		if err != nil {
			s.logger.Warn("envio delete failed", zap.String("iccid", iccid), zap.Error(err))
			result.Errors = append(result.Errors, models.BulkOperationError{ItemIndex: i, ICCID: iccid, Error: err.Error()})
			continue
		}
		if n == 0 {
			result.NotFound = append(result.NotFound, iccid)
			continue
		}
		result.RowsDeleted += n
		result.Eliminated = append(result.Eliminated, iccid)
	}

	countItems("delete", outcomeSuccess, len(result.Eliminated))
	countItems("delete", outcomeNotFound, len(result.NotFound))
	countItems("delete", outcomeFailed, len(result.Errors))
	if len(result.Eliminated) > 0 {
		s.invalidate(ctx)
	}

	s.logger.Info("bulk delete finished",
		zap.String("actor", s.actor(actor)),
		zap.Int("eliminated", len(result.Eliminated)),
		zap.Int("not_found", len(result.NotFound)),
		zap.Int("errors", len(result.Errors)),
		zap.Int64("rows_deleted", result.RowsDeleted),
	)
	return result, nil
}

// CorrectDates overwrites fecha_envio on the latest row of each ICCID. No
// ordering check is made against the row's creation time.
func (s *envioService) CorrectDates(ctx context.Context, iccids []string, fecha time.Time, reason, actor string) (*models.DateCorrectionResult, error) {
	candidates, _ := dedupe(ParseICCIDs(iccids...))
	if len(candidates) == 0 {
		return nil, ErrNoICCIDs
	}
	if fecha.IsZero() {
		return nil, NewValidationError("fecha_nueva", "is required")
	}
	fecha = common.DateOnly(fecha.In(s.clock.Location()))

	result := &models.DateCorrectionResult{
		NotFound: []string{},
		Errors:   []models.BulkOperationError{},
		Details:  []models.DateCorrection{},
	}

	latest := make(map[string]*models.Envio)
	failed := make(map[string]string)
	for _, batch := range chunk(candidates, existenceChunkSize) {
		rows, err := s.envioRepo.LatestByICCIDs(ctx, batch)
		if err != nil {
			ledgerBatchErrorsTotal.WithLabelValues("date_correction").Inc()
			for _, iccid := range batch {
				failed[iccid] = err.Error()
			}
			continue
		}
		for _, e := range rows {
			latest[e.ICCID] = e
		}
	}

	note := marker(markerDateCorrected, reason)
	for i, iccid := range candidates {
		if msg, ok := failed[iccid]; ok {
			result.Errors = append(result.Errors, models.BulkOperationError{ItemIndex: i, ICCID: iccid, Error: msg})
			continue
		}
		e, ok := latest[iccid]
		if !ok {
			result.NotFound = append(result.NotFound, iccid)
			continue
		}
		if err := s.envioRepo.UpdateFechaEnvio(ctx, e.ID, fecha, note); err != nil {
			s.logger.Warn("date correction failed", zap.String("iccid", iccid), zap.Error(err))
			result.Errors = append(result.Errors, models.BulkOperationError{ItemIndex: i, ICCID: iccid, Error: err.Error()})
			continue
		}
		result.Updated++
		result.Details = append(result.Details, models.DateCorrection{
			ICCID:         iccid,
			FechaAnterior: e.FechaEnvio,
			FechaNueva:    fecha,
		})
	}

	countItems("date_correction", outcomeSuccess, result.Updated)
	countItems("date_correction", outcomeNotFound, len(result.NotFound))
	countItems("date_correction", outcomeFailed, len(result.Errors))
	if result.Updated > 0 {
		s.invalidate(ctx)
	}

	s.logger.Info("date correction finished",
		zap.String("actor", s.actor(actor)),
		zap.Time("fecha_nueva", fecha),
		zap.Int("updated", result.Updated),
		zap.Int("not_found", len(result.NotFound)),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// Cancel marks the latest row of iccid CANCELADO.
func (s *envioService) Cancel(ctx context.Context, iccid, reason, actor string) (*models.Envio, error) {
	e, err := s.latest(ctx, iccid)
	if err != nil {
		return nil, err
	}

	note := marker(markerCancelled, reason)
	if err := s.envioRepo.UpdateStatus(ctx, e.ID, models.EnvioCancelled, &note); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEnvioNotFound
		}
		return nil, fmt.Errorf("failed to cancel envio %s: %w", e.ICCID, err)
	}

	e.Estatus = models.EnvioCancelled
	e.Observaciones = &note
	e.UpdatedAt = s.clock.Now()
	countItems("cancel", outcomeSuccess, 1)
	s.invalidate(ctx)
	s.logger.Info("envio cancelled", zap.String("iccid", e.ICCID), zap.String("actor", s.actor(actor)))
	return e, nil
}

// GetByICCID returns the latest row of iccid, or nil when the ICCID is unknown.
func (s *envioService) GetByICCID(ctx context.Context, iccid string) (*models.Envio, error) {
	iccid = normalizeICCID(iccid)
	if iccid == "" {
		return nil, ErrNoICCIDs
	}
	e, err := s.envioRepo.GetLatestByICCID(ctx, iccid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

func (s *envioService) History(ctx context.Context, iccid string) (*models.EnvioHistory, error) {
	iccid = normalizeICCID(iccid)
	if iccid == "" {
		return nil, ErrNoICCIDs
	}

	envios, err := s.envioRepo.ListByICCID(ctx, iccid)
	if err != nil {
		return nil, fmt.Errorf("failed to list envios for %s: %w", iccid, err)
	}
	if len(envios) == 0 {
		return nil, ErrEnvioNotFound
	}

	cambios, err := s.historyRepo.ListByICCID(ctx, iccid)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for %s: %w", iccid, err)
	}

	return &models.EnvioHistory{ICCID: iccid, Envios: envios, Cambios: cambios}, nil
}

// ActiveCandidates classifies pasted ICCIDs by the status of their latest row,
// producing the ACTIVO list that bulk correction and reassignment expect.
func (s *envioService) ActiveCandidates(ctx context.Context, raw []string) (*models.ActiveCandidates, error) {
	candidates, _ := dedupe(ParseICCIDs(raw...))
	if len(candidates) == 0 {
		return nil, ErrNoICCIDs
	}

	latest := make(map[string]*models.Envio, len(candidates))
	for _, batch := range chunk(candidates, existenceChunkSize) {
		rows, err := s.envioRepo.LatestByICCIDs(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve ICCIDs: %w", err)
		}
		for _, e := range rows {
			latest[e.ICCID] = e
		}
	}

	result := &models.ActiveCandidates{
		Active:   []*models.Envio{},
		Inactive: []*models.Envio{},
		NotFound: []string{},
	}
	for _, iccid := range candidates {
		e, ok := latest[iccid]
		switch {
		case !ok:
			result.NotFound = append(result.NotFound, iccid)
		case e.Estatus == models.EnvioActive:
			result.Active = append(result.Active, e)
		default:
			result.Inactive = append(result.Inactive, e)
		}
	}
	return result, nil
}

// runBulk applies fn to every ICCID independently and tallies the outcomes.
func (s *envioService) runBulk(ctx context.Context, operation string, iccids []string, fn func(iccid string) error) *models.BulkOperationResult {
	result := &models.BulkOperationResult{
		Operation:  operation,
		TotalItems: len(iccids),
		StartTime:  s.clock.Now(),
		Errors:     []models.BulkOperationError{},
		Items:      make([]models.BulkOperationItem, 0, len(iccids)),
	}

	for i, iccid := range iccids {
		item := models.BulkOperationItem{ItemIndex: i, ICCID: iccid, Status: outcomeSuccess}
		if err := fn(iccid); err != nil {
			msg := err.Error()
			item.Status = outcomeFailed
			item.Error = &msg
			result.FailedItems++
			result.Errors = append(result.Errors, models.BulkOperationError{ItemIndex: i, ICCID: iccid, Error: msg})
			s.logger.Warn("bulk item failed", zap.String("operation", operation), zap.String("iccid", iccid), zap.Error(err))
		} else {
			result.ProcessedItems++
		}
		result.Items = append(result.Items, item)
	}

	completed := s.clock.Now()
	result.CompletionTime = &completed

	countItems(operation, outcomeSuccess, result.ProcessedItems)
	countItems(operation, outcomeFailed, result.FailedItems)
	if result.ProcessedItems > 0 {
		s.invalidate(ctx)
	}
	return result
}

func (s *envioService) latest(ctx context.Context, iccid string) (*models.Envio, error) {
	iccid = normalizeICCID(iccid)
	if iccid == "" {
		return nil, ErrNoICCIDs
	}
	e, err := s.envioRepo.GetLatestByICCID(ctx, iccid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEnvioNotFound
		}
		return nil, fmt.Errorf("failed to load envio %s: %w", iccid, err)
	}
	return e, nil
}

func (s *envioService) actor(actor string) string {
	if actor = strings.TrimSpace(actor); actor != "" {
		return actor
	}
	return s.defaultActor
}

func (s *envioService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAggregates(ctx); err != nil {
		s.logger.Warn("failed to invalidate aggregate cache", zap.Error(err))
	}
}

func normalizeSnapshot(snapshot models.DistributorSnapshot) (models.DistributorSnapshot, error) {
	snapshot.CodigoBT = normalizeUpper(snapshot.CodigoBT)
	snapshot.Nombre = normalizeUpper(snapshot.Nombre)
	if snapshot.ID == uuid.Nil || snapshot.CodigoBT == "" {
		return snapshot, NewValidationError("distribuidor", "a target distributor is required")
	}
	return snapshot, nil
}

func normalizeICCID(iccid string) string {
	return strings.ToUpper(strings.TrimSpace(iccid))
}

// marker renders "LABEL: reason", or just LABEL when no reason was given.
func marker(label, reason string) string {
	if reason = strings.TrimSpace(reason); reason != "" {
		return label + ": " + reason
	}
	return label
}

func joinNote(prior *string, note string, appendNote bool) *string {
	if appendNote && common.SafeString(prior) != "" {
		joined := *prior + " | " + note
		return &joined
	}
	return &note
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

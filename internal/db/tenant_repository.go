package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentdesk/rentdesk/internal/models"
)

// Tenant repository errors.
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrInvalidTenant  = errors.New("invalid tenant")
)

const tenantColumns = `id, user_id, full_name, id_card, phone, email, current_address, permanent_address, created_at, updated_at`

var tenantSortColumns = map[models.TenantSortField]string{
	models.TenantSortFullName:  "fold(full_name)",
	models.TenantSortCreatedAt: "created_at",
	models.TenantSortUpdatedAt: "updated_at",
}

// TenantRepository handles tenant persistence.
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create inserts a tenant.
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	if tenant == nil || tenant.UserID == "" || tenant.FullName == "" {
		return ErrInvalidTenant
	}

	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}
	tenant.UpdatedAt = tenant.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tenant.ID,
		tenant.UserID,
		tenant.FullName,
		nullString(tenant.IDCard),
		tenant.Phone,
		nullString(tenant.Email),
		nullString(tenant.CurrentAddress),
		nullString(tenant.PermanentAddress),
		formatTime(tenant.CreatedAt),
		formatTime(tenant.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

// Get retrieves a tenant by ID.
func (r *TenantRepository) Get(ctx context.Context, id string) (*models.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id)
	tenant, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

// Update overwrites the tenant's details and bumps UpdatedAt.
func (r *TenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	if tenant == nil || tenant.ID == "" || tenant.FullName == "" {
		return ErrInvalidTenant
	}

	tenant.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE tenants
		SET full_name = ?, id_card = ?, phone = ?, email = ?,
			current_address = ?, permanent_address = ?, updated_at = ?
		WHERE id = ?
	`,
		tenant.FullName,
		nullString(tenant.IDCard),
		tenant.Phone,
		nullString(tenant.Email),
		nullString(tenant.CurrentAddress),
		nullString(tenant.PermanentAddress),
		formatTime(tenant.UpdatedAt),
		tenant.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return requireAffected(result, ErrTenantNotFound)
}

// Delete removes a tenant.
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return requireAffected(result, ErrTenantNotFound)
}

// IDCardExists reports whether another tenant already uses idCard. A
// non-empty excludeID skips that tenant, so an update can keep its own number.
func (r *TenantRepository) IDCardExists(ctx context.Context, idCard, excludeID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tenants WHERE id_card = ? AND id <> ?`,
		idCard, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check id card: %w", err)
	}
	return count > 0, nil
}

// List returns one page of tenants matching params.
func (r *TenantRepository) List(ctx context.Context, params models.TenantListParams) (*models.TenantListPage, error) {
	params = params.Normalize()

	where := ``
	args := []any{}
	if params.Search != "" {
		pattern := searchPattern(params.Search)
		where = ` WHERE (fold(full_name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR id_card LIKE ? ESCAPE '\' OR fold(email) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern, pattern)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tenants: %w", err)
	}

	direction := "DESC"
	if params.SortOrder == models.SortAsc {
		direction = "ASC"
	}
	query := `SELECT ` + tenantColumns + ` FROM tenants` + where +
		fmt.Sprintf(` ORDER BY %s %s, id %s LIMIT ? OFFSET ?`, tenantSortColumns[params.SortBy], direction, direction)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]*models.Tenant, 0)
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenants: %w", err)
	}

	return &models.TenantListPage{
		Tenants:    tenants,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: models.TotalPages(total, params.PageSize),
	}, nil
}

func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var tenant models.Tenant
	var idCard, email, currentAddress, permanentAddress sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(
		&tenant.ID,
		&tenant.UserID,
		&tenant.FullName,
		&idCard,
		&tenant.Phone,
		&email,
		&currentAddress,
		&permanentAddress,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}

	tenant.IDCard = idCard.String
	tenant.Email = email.String
	tenant.CurrentAddress = currentAddress.String
	tenant.PermanentAddress = permanentAddress.String
	tenant.CreatedAt = parseTime(createdAt)
	tenant.UpdatedAt = parseTime(updatedAt)

	return &tenant, nil
}

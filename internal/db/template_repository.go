package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentdesk/rentdesk/internal/models"
)

// Contract template repository errors.
var (
	ErrContractTemplateNotFound = errors.New("contract template not found")
	ErrInvalidContractTemplate  = errors.New("invalid contract template")
)

const templateColumns = `id, user_id, name, content, variables, is_default, created_at, updated_at`

var templateSortColumns = map[models.TemplateSortField]string{
	models.TemplateSortName:      "name",
	models.TemplateSortCreatedAt: "created_at",
	models.TemplateSortUpdatedAt: "updated_at",
}

// ContractTemplateRepository handles contract template persistence.
type ContractTemplateRepository struct {
	db *DB
}

// NewContractTemplateRepository creates a new ContractTemplateRepository.
func NewContractTemplateRepository(db *DB) *ContractTemplateRepository {
	return &ContractTemplateRepository{db: db}
}

// Create inserts a template, assigning ID and timestamps when unset.
func (r *ContractTemplateRepository) Create(ctx context.Context, tmpl *models.ContractTemplate) error {
	if tmpl == nil || tmpl.UserID == "" || tmpl.Name == "" {
		return ErrInvalidContractTemplate
	}

	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = tmpl.CreatedAt
	if tmpl.Variables == nil {
		tmpl.Variables = []models.TemplateVariable{}
	}

	variablesJSON, err := json.Marshal(tmpl.Variables)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contract_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tmpl.ID,
		tmpl.UserID,
		tmpl.Name,
		tmpl.Content,
		string(variablesJSON),
		tmpl.IsDefault,
		formatTime(tmpl.CreatedAt),
		formatTime(tmpl.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contract template: %w", err)
	}

	return nil
}

// Get retrieves a template by ID.
func (r *ContractTemplateRepository) Get(ctx context.Context, id string) (*models.ContractTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM contract_templates WHERE id = ?`, id)

	tmpl, err := r.scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractTemplateNotFound
		}
		return nil, err
	}
	return tmpl, nil
}

// Update overwrites name, content, variables and the default flag, and bumps UpdatedAt.
func (r *ContractTemplateRepository) Update(ctx context.Context, tmpl *models.ContractTemplate) error {
	if tmpl == nil || tmpl.ID == "" {
		return ErrInvalidContractTemplate
	}
	if tmpl.Variables == nil {
		tmpl.Variables = []models.TemplateVariable{}
	}

	variablesJSON, err := json.Marshal(tmpl.Variables)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}

	tmpl.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE contract_templates
		SET name = ?, content = ?, variables = ?, is_default = ?, updated_at = ?
		WHERE id = ?
	`,
		tmpl.Name,
		tmpl.Content,
		string(variablesJSON),
		tmpl.IsDefault,
		formatTime(tmpl.UpdatedAt),
		tmpl.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract template: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrContractTemplateNotFound
	}
	return nil
}

// Delete removes a template.
func (r *ContractTemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contract_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrContractTemplateNotFound
	}
	return nil
}

// List returns one page of templates matching params.
func (r *ContractTemplateRepository) List(ctx context.Context, params models.TemplateListParams) (*models.TemplateListPage, error) {
	params = params.Normalize()

	where := ` WHERE 1=1`
	args := []any{}

	if params.Search != "" {
		pattern := searchPattern(params.Search)
		where += ` AND (fold(name) LIKE ? ESCAPE '\' OR fold(content) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	if params.IsDefault != nil {
		where += ` AND is_default = ?`
		args = append(args, *params.IsDefault)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contract_templates`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count contract templates: %w", err)
	}

	direction := "DESC"
	if params.SortOrder == models.SortAsc {
		direction = "ASC"
	}
	query := `SELECT ` + templateColumns + ` FROM contract_templates` + where +
		fmt.Sprintf(` ORDER BY %s %s, id %s LIMIT ? OFFSET ?`, templateSortColumns[params.SortBy], direction, direction)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*models.ContractTemplate, 0)
	for rows.Next() {
		tmpl, err := r.scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contract templates: %w", err)
	}

	return &models.TemplateListPage{
		Templates:  templates,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: models.TotalPages(total, params.PageSize),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ContractTemplateRepository) scanTemplate(row rowScanner) (*models.ContractTemplate, error) {
	var tmpl models.ContractTemplate
	var variablesJSON sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(
		&tmpl.ID,
		&tmpl.UserID,
		&tmpl.Name,
		&tmpl.Content,
		&variablesJSON,
		&tmpl.IsDefault,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan contract template: %w", err)
	}

	tmpl.CreatedAt = parseTime(createdAt)
	tmpl.UpdatedAt = parseTime(updatedAt)
	tmpl.Variables = decodeVariables(variablesJSON)
	if variablesJSON.Valid && len(tmpl.Variables) == 0 && strings.TrimSpace(variablesJSON.String) != "[]" {
		r.db.logger.Warn().Str("template_id", tmpl.ID).Msg("variables column is not a variable array, treating as empty")
	}

	return &tmpl, nil
}

// decodeVariables treats anything that is not a JSON array of variables as empty.
func decodeVariables(raw sql.NullString) []models.TemplateVariable {
	vars := []models.TemplateVariable{}
	if !raw.Valid {
		return vars
	}
	if err := json.Unmarshal([]byte(raw.String), &vars); err != nil || vars == nil {
		return []models.TemplateVariable{}
	}
	return vars
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

package instance

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hypanel/hypanel/internal/database"
)

// ErrNotFound is returned when an instance id does not exist.
var ErrNotFound = errors.New("instance not found")

// Instance is one configured server installation.
type Instance struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Path             string    `json:"path"`
	JavaPath         string    `json:"java_path,omitempty"`
	JVMArgs          string    `json:"jvm_args,omitempty"`
	ServerArgs       string    `json:"server_args,omitempty"`
	AuthStatus       string    `json:"auth_status"`      // unknown, authenticated, unauthenticated, offline
	AuthPersistence  string    `json:"auth_persistence"` // memory, encrypted
	AuthProfileName  string    `json:"auth_profile_name,omitempty"`
	InstalledVersion string    `json:"installed_version,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateInput carries the fields needed to register a new instance.
type CreateInput struct {
	Name     string
	Path     string
	JavaPath string
}

// UpdateInput carries optional fields for updating an instance. Nil means unchanged.
type UpdateInput struct {
	Name       *string
	JavaPath   *string
	JVMArgs    *string
	ServerArgs *string
}

// AuthUpdate carries optional auth-state fields. Nil means unchanged.
type AuthUpdate struct {
	Status      *string
	Persistence *string
	ProfileName *string
}

// Store provides access to persisted instance metadata.
type Store struct {
	db *database.DB
}

// NewStore creates an instance store backed by the given database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

const instanceColumns = `id, name, path, java_path, jvm_args, server_args,
	auth_status, auth_persistence, auth_profile_name, installed_version,
	created_at, updated_at`

// Create registers a new instance with a generated id.
func (s *Store) Create(input CreateInput) (*Instance, error) {
	name := strings.TrimSpace(input.Name)
	path := strings.TrimSpace(input.Path)
	if name == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if path == "" {
		return nil, fmt.Errorf("instance path is required")
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO instances (id, name, path, java_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, name, path, nullable(input.JavaPath), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	return s.Get(id)
}

// Get returns the instance with the given id.
func (s *Store) Get(id string) (*Instance, error) {
	row := s.db.QueryRow(`SELECT `+instanceColumns+` FROM instances WHERE id = ?`, id)
	return scanInstance(row)
}

// GetByPath returns the instance rooted at the given path, if any.
func (s *Store) GetByPath(path string) (*Instance, error) {
	row := s.db.QueryRow(`SELECT `+instanceColumns+` FROM instances WHERE path = ?`, path)
	return scanInstance(row)
}

// List returns all instances, newest first.
func (s *Store) List() ([]*Instance, error) {
	rows, err := s.db.Query(`SELECT ` + instanceColumns + ` FROM instances ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var instances []*Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	return instances, rows.Err()
}

// Update applies the non-nil fields of input to the instance.
func (s *Store) Update(id string, input UpdateInput) error {
	updates := []string{"updated_at = ?"}
	values := []interface{}{time.Now().UTC()}

	if input.Name != nil {
		updates = append(updates, "name = ?")
		values = append(values, *input.Name)
	}
	if input.JavaPath != nil {
		updates = append(updates, "java_path = ?")
		values = append(values, *input.JavaPath)
	}
	if input.JVMArgs != nil {
		updates = append(updates, "jvm_args = ?")
		values = append(values, *input.JVMArgs)
	}
	if input.ServerArgs != nil {
		updates = append(updates, "server_args = ?")
		values = append(values, *input.ServerArgs)
	}

	values = append(values, id)
	result, err := s.db.Exec("UPDATE instances SET "+strings.Join(updates, ", ")+" WHERE id = ?", values...)
	if err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}

	return requireRow(result)
}

// UpdateAuth applies the non-nil auth fields to the instance.
func (s *Store) UpdateAuth(id string, input AuthUpdate) error {
	updates := []string{"updated_at = ?"}
	values := []interface{}{time.Now().UTC()}

	if input.Status != nil {
		updates = append(updates, "auth_status = ?")
		values = append(values, *input.Status)
	}
	if input.Persistence != nil {
		updates = append(updates, "auth_persistence = ?")
		values = append(values, *input.Persistence)
	}
	if input.ProfileName != nil {
		updates = append(updates, "auth_profile_name = ?")
		values = append(values, *input.ProfileName)
	}

	values = append(values, id)
	result, err := s.db.Exec("UPDATE instances SET "+strings.Join(updates, ", ")+" WHERE id = ?", values...)
	if err != nil {
		return fmt.Errorf("failed to update instance auth: %w", err)
	}

	return requireRow(result)
}

// UpdateInstalledVersion records the server version installed in the instance dir.
func (s *Store) UpdateInstalledVersion(id, version string) error {
	result, err := s.db.Exec(
		"UPDATE instances SET installed_version = ?, updated_at = ? WHERE id = ?",
		version, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update installed version: %w", err)
	}

	return requireRow(result)
}

// Delete removes the instance row. The instance directory is left untouched.
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec("DELETE FROM instances WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}

	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstance(row rowScanner) (*Instance, error) {
	var inst Instance
	var javaPath, jvmArgs, serverArgs sql.NullString
	var authStatus, authPersistence, profileName, installedVersion sql.NullString

	err := row.Scan(
		&inst.ID, &inst.Name, &inst.Path, &javaPath, &jvmArgs, &serverArgs,
		&authStatus, &authPersistence, &profileName, &installedVersion,
		&inst.CreatedAt, &inst.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan instance: %w", err)
	}

	inst.JavaPath = javaPath.String
	inst.JVMArgs = jvmArgs.String
	inst.ServerArgs = serverArgs.String
	inst.AuthStatus = authStatus.String
	if inst.AuthStatus == "" {
		inst.AuthStatus = "unknown"
	}
	inst.AuthPersistence = authPersistence.String
	if inst.AuthPersistence == "" {
		inst.AuthPersistence = "memory"
	}
	inst.AuthProfileName = profileName.String
	inst.InstalledVersion = installedVersion.String

	return &inst, nil
}

func nullable(value string) interface{} {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

package api

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fourminutelog/fourminutelog/db"
	"github.com/fourminutelog/fourminutelog/log"
)

// GetClients handles GET /api/clients
func (h *Handlers) GetClients(c *gin.Context) {
	userID := CurrentUserID(c)

	rows, err := db.Query(`
		SELECT id, name, emoji, color, created_at
		FROM clients
		WHERE user_id = ?
		ORDER BY created_at
	`, userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get clients")
		RespondInternalError(c, "Failed to get clients")
		return
	}
	defer rows.Close()

	clients := []db.Client{}
	for rows.Next() {
		var cl db.Client
		if err := rows.Scan(&cl.ID, &cl.Name, &cl.Emoji, &cl.Color, &cl.CreatedAt); err != nil {
			continue
		}
		clients = append(clients, cl)
	}

	for i := range clients {
		if err := loadClientRelations(&clients[i]); err != nil {
			log.Error().Err(err).Str("client", clients[i].ID).Msg("failed to load client relations")
			RespondInternalError(c, "Failed to get clients")
			return
		}
	}

	RespondList(c, clients)
}

// GetClient handles GET /api/clients/:id
func (h *Handlers) GetClient(c *gin.Context) {
	cl, err := loadClient(CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			RespondNotFound(c, "Client not found")
			return
		}
		log.Error().Err(err).Msg("failed to get client")
		RespondInternalError(c, "Failed to get client")
		return
	}

	RespondData(c, cl)
}

// CreateClient handles POST /api/clients. New clients start with a
// default "General" project.
func (h *Handlers) CreateClient(c *gin.Context) {
	var body struct {
		Name  string   `json:"name"`
		Emoji string   `json:"emoji"`
		Color string   `json:"color"`
		Tags  []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "invalid client body", nil)
		return
	}
	if body.Name == "" {
		RespondValidationError(c, "name is required", nil)
		return
	}

	userID := CurrentUserID(c)
	now := db.NowMs()
	cl := db.Client{
		ID:        uuid.NewString(),
		Name:      body.Name,
		Emoji:     body.Emoji,
		Color:     body.Color,
		Tags:      body.Tags,
		CreatedAt: now,
	}
	if cl.Tags == nil {
		cl.Tags = []string{}
	}

	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO clients (id, user_id, name, emoji, color, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, cl.ID, userID, cl.Name, cl.Emoji, cl.Color, cl.CreatedAt); err != nil {
			return err
		}

		for i, tag := range cl.Tags {
			if _, err := tx.Exec(`
				INSERT INTO client_tags (id, client_id, tag, position)
				VALUES (?, ?, ?, ?)
			`, uuid.NewString(), cl.ID, tag, i); err != nil {
				return err
			}
		}

		project := db.Project{
			ID:        uuid.NewString(),
			Name:      "General",
			CreatedAt: now,
		}
		if _, err := tx.Exec(`
			INSERT INTO projects (id, client_id, name, description, position, created_at)
			VALUES (?, ?, ?, NULL, 0, ?)
		`, project.ID, cl.ID, project.Name, project.CreatedAt); err != nil {
			return err
		}
		cl.Projects = []db.Project{project}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create client")
		RespondInternalError(c, "Failed to create client")
		return
	}

	h.notify.NotifyClientsChanged()
	RespondCreated(c, cl, "/api/clients/"+cl.ID)
}

// UpdateClient handles PUT /api/clients/:id
func (h *Handlers) UpdateClient(c *gin.Context) {
	userID := CurrentUserID(c)
	id := c.Param("id")

	var body struct {
		Name  string   `json:"name"`
		Emoji string   `json:"emoji"`
		Color string   `json:"color"`
		Tags  []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "invalid client body", nil)
		return
	}
	if body.Name == "" {
		RespondValidationError(c, "name is required", nil)
		return
	}

	err := db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE clients SET name = ?, emoji = ?, color = ?
			WHERE id = ? AND user_id = ?
		`, body.Name, body.Emoji, body.Color, id, userID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return sql.ErrNoRows
		}

		if _, err := tx.Exec(`DELETE FROM client_tags WHERE client_id = ?`, id); err != nil {
			return err
		}
		for i, tag := range body.Tags {
			if _, err := tx.Exec(`
				INSERT INTO client_tags (id, client_id, tag, position)
				VALUES (?, ?, ?, ?)
			`, uuid.NewString(), id, tag, i); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			RespondNotFound(c, "Client not found")
			return
		}
		log.Error().Err(err).Msg("failed to update client")
		RespondInternalError(c, "Failed to update client")
		return
	}

	cl, err := loadClient(userID, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload client")
		RespondInternalError(c, "Failed to update client")
		return
	}

	h.notify.NotifyClientsChanged()
	RespondData(c, cl)
}

// DeleteClient handles DELETE /api/clients/:id. Projects and tags cascade.
func (h *Handlers) DeleteClient(c *gin.Context) {
	res, err := db.Exec(`
		DELETE FROM clients WHERE id = ? AND user_id = ?
	`, c.Param("id"), CurrentUserID(c))
	if err != nil {
		log.Error().Err(err).Msg("failed to delete client")
		RespondInternalError(c, "Failed to delete client")
		return
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		RespondNotFound(c, "Client not found")
		return
	}

	h.notify.NotifyClientsChanged()
	RespondNoContent(c)
}

// CreateProject handles POST /api/clients/:id/projects
func (h *Handlers) CreateProject(c *gin.Context) {
	userID := CurrentUserID(c)
	clientID := c.Param("id")

	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "invalid project body", nil)
		return
	}
	if body.Name == "" {
		RespondValidationError(c, "name is required", nil)
		return
	}

	if !clientExists(userID, clientID) {
		RespondNotFound(c, "Client not found")
		return
	}

	project := db.Project{
		ID:          uuid.NewString(),
		Name:        body.Name,
		Description: body.Description,
		CreatedAt:   db.NowMs(),
	}

	_, err := db.Exec(`
		INSERT INTO projects (id, client_id, name, description, position, created_at)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM projects WHERE client_id = ?), ?)
	`, project.ID, clientID, project.Name, db.NullString(project.Description), clientID, project.CreatedAt)
	if err != nil {
		log.Error().Err(err).Msg("failed to create project")
		RespondInternalError(c, "Failed to create project")
		return
	}

	h.notify.NotifyClientsChanged()
	RespondCreated(c, project, "/api/clients/"+clientID+"/projects/"+project.ID)
}

// UpdateProject handles PUT /api/clients/:id/projects/:projectId
func (h *Handlers) UpdateProject(c *gin.Context) {
	userID := CurrentUserID(c)
	clientID := c.Param("id")
	projectID := c.Param("projectId")

	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "invalid project body", nil)
		return
	}
	if body.Name == "" {
		RespondValidationError(c, "name is required", nil)
		return
	}

	if !clientExists(userID, clientID) {
		RespondNotFound(c, "Client not found")
		return
	}

	res, err := db.Exec(`
		UPDATE projects SET name = ?, description = ?
		WHERE id = ? AND client_id = ?
	`, body.Name, db.NullString(body.Description), projectID, clientID)
	if err != nil {
		log.Error().Err(err).Msg("failed to update project")
		RespondInternalError(c, "Failed to update project")
		return
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		RespondNotFound(c, "Project not found")
		return
	}

	h.notify.NotifyClientsChanged()
	RespondNoContent(c)
}

// DeleteProject handles DELETE /api/clients/:id/projects/:projectId
func (h *Handlers) DeleteProject(c *gin.Context) {
	userID := CurrentUserID(c)
	clientID := c.Param("id")

	if !clientExists(userID, clientID) {
		RespondNotFound(c, "Client not found")
		return
	}

	res, err := db.Exec(`
		DELETE FROM projects WHERE id = ? AND client_id = ?
	`, c.Param("projectId"), clientID)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete project")
		RespondInternalError(c, "Failed to delete project")
		return
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		RespondNotFound(c, "Project not found")
		return
	}

	h.notify.NotifyClientsChanged()
	RespondNoContent(c)
}

func clientExists(userID, clientID string) bool {
	var one int
	err := db.QueryRow(`
		SELECT 1 FROM clients WHERE id = ? AND user_id = ?
	`, clientID, userID).Scan(&one)
	return err == nil
}

func loadClient(userID, id string) (db.Client, error) {
	var cl db.Client
	err := db.QueryRow(`
		SELECT id, name, emoji, color, created_at
		FROM clients
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&cl.ID, &cl.Name, &cl.Emoji, &cl.Color, &cl.CreatedAt)
	if err != nil {
		return db.Client{}, err
	}

	if err := loadClientRelations(&cl); err != nil {
		return db.Client{}, err
	}
	return cl, nil
}

func loadClientRelations(cl *db.Client) error {
	cl.Tags = []string{}
	rows, err := db.Query(`
		SELECT tag FROM client_tags WHERE client_id = ? ORDER BY position
	`, cl.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return err
		}
		cl.Tags = append(cl.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cl.Projects = []db.Project{}
	prows, err := db.Query(`
		SELECT id, name, description, created_at
		FROM projects
		WHERE client_id = ?
		ORDER BY position
	`, cl.ID)
	if err != nil {
		return err
	}
	defer prows.Close()
	for prows.Next() {
		var p db.Project
		var desc sql.NullString
		if err := prows.Scan(&p.ID, &p.Name, &desc, &p.CreatedAt); err != nil {
			return err
		}
		p.Description = db.StringPtr(desc)
		cl.Projects = append(cl.Projects, p)
	}
	return prows.Err()
}

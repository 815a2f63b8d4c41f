package repositories

import (
	"fmt"
	"log"
	"time"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskboard/internal/models"
)

// EnsureAdmin creates the bootstrap admin account if no admin exists yet.
func EnsureAdmin(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("access_level = ?", models.AdminAccessLevel).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		ID:           uuid.Must(uuid.NewV4()),
		Username:     username,
		PasswordHash: string(hash),
		AccessLevel:  models.AdminAccessLevel,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("👤 Bootstrap admin %q created", username)
	return nil
}

// SeedDemoData populates an empty database with demo users, projects,
// tasks, subtasks and comments. It is a no-op when any user exists.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		ID:           uuid.Must(uuid.NewV4()),
		Username:     "admin",
		PasswordHash: string(adminHash),
		AccessLevel:  models.AdminAccessLevel,
	}

	var managers, workers []models.User
	for i := 1; i <= 3; i++ {
		managers = append(managers, models.User{
			ID:           uuid.Must(uuid.NewV4()),
			Username:     fmt.Sprintf("manager%d", i),
			PasswordHash: string(hash),
			AccessLevel:  1,
		})
	}
	for i := 1; i <= 5; i++ {
		workers = append(workers, models.User{
			ID:           uuid.Must(uuid.NewV4()),
			Username:     fmt.Sprintf("worker%d", i),
			PasswordHash: string(hash),
			AccessLevel:  2,
		})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		users := append([]models.User{admin}, append(managers, workers...)...)
		if err := tx.Create(&users).Error; err != nil {
			return err
		}

		projectNames := []string{"Website Redesign", "Mobile App", "Marketing Campaign"}
		colors := []string{"#3498db", "#e74c3c", "#2ecc71"}
		projects := make([]models.Project, len(projectNames))
		for i, name := range projectNames {
			projects[i] = models.Project{
				ID:          uuid.Must(uuid.NewV4()),
				Name:        name,
				Description: fmt.Sprintf("Company project: %s", name),
				Color:       colors[i],
				OwnerID:     admin.ID,
			}
		}
		if err := tx.Create(&projects).Error; err != nil {
			return err
		}

		statuses := []string{models.StatusTodo, models.StatusInProgress, models.StatusReview, models.StatusDone}
		titles := []string{
			"Design the landing page",
			"Implement authentication",
			"Build the users API",
			"Run functional testing",
			"Prepare the demo deck",
			"Set up analytics",
			"Fix mobile layout bugs",
			"Update the documentation",
			"Run a code review",
			"Deploy to production",
		}

		today := models.DateOnly(time.Now().UTC())
		tasks := make([]models.Task, len(titles))
		for i, title := range titles {
			deadline := today.AddDate(0, 0, (i*3)%30)
			projectID := projects[i%len(projects)].ID
			tasks[i] = models.Task{
				ID:          uuid.Must(uuid.NewV4()),
				Title:       title,
				Description: fmt.Sprintf("Detailed description for %q", title),
				Status:      statuses[i%len(statuses)],
				Priority:    1 + i%4,
				Deadline:    &deadline,
				AuthorID:    managers[i%len(managers)].ID,
				ProjectID:   &projectID,
			}
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return err
		}

		for i := range tasks {
			var assignees []models.User
			switch i % 3 {
			case 0:
				assignees = workers[:2]
			case 1:
				assignees = []models.User{workers[i%len(workers)]}
			default:
				assignees = []models.User{workers[(i+1)%len(workers)]}
			}
			if err := tx.Model(&tasks[i]).Association("Assignees").Append(assignees); err != nil {
				return err
			}
		}

		subtaskTitles := []string{"Research", "Implementation", "Testing", "Documentation"}
		for i := range tasks {
			for j := 0; j < 2+i%3; j++ {
				subtask := models.Subtask{
					ID:        uuid.Must(uuid.NewV4()),
					Title:     fmt.Sprintf("%s for %q", subtaskTitles[j%len(subtaskTitles)], tasks[i].Title),
					Completed: j == 0,
					TaskID:    tasks[i].ID,
				}
				if err := tx.Create(&subtask).Error; err != nil {
					return err
				}
			}
		}

		commentBodies := []string{
			"Started working on this",
			"Hit a snag with the API",
			"Need input from a manager",
			"Almost done here",
			"Please take a look",
			"Great work!",
			"Needs another pass",
			"Deadline is close!",
		}
		for i := range tasks {
			for j := 0; j < i%4; j++ {
				author := workers[j%len(workers)]
				if j%2 != 0 {
					author = managers[j%len(managers)]
				}
				comment := models.Comment{
					ID:       uuid.Must(uuid.NewV4()),
					Content:  commentBodies[(i+j)%len(commentBodies)],
					AuthorID: author.ID,
					TaskID:   tasks[i].ID,
				}
				if err := tx.Create(&comment).Error; err != nil {
					return err
				}
			}
		}

		log.Printf("🌱 Seeded demo data: %d users, %d projects, %d tasks", len(users), len(projects), len(tasks))
		return nil
	})
}

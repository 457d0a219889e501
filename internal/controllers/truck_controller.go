package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"camion_tracker/internal/config"
	"camion_tracker/internal/middleware"
	"camion_tracker/internal/models"
	"camion_tracker/internal/reports"
	"camion_tracker/internal/statemachine"
)

type entryInput struct {
	Plate  string `json:"plaque" binding:"required"`
	Driver string `json:"chauffeur" binding:"required"`
}

// RegisterEntry records a truck arriving at the weighbridge.
func RegisterEntry(c *gin.Context) {
	var input entryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "La plaque et le chauffeur sont obligatoires", err)
		return
	}
	plate := models.NormalizePlate(input.Plate)
	driver := strings.TrimSpace(input.Driver)
	if plate == "" || driver == "" {
		badRequest(c, "La plaque et le chauffeur sont obligatoires", nil)
		return
	}

	arrivedAt := now()
	date := arrivedAt.Format(models.DateLayout)

	var active int64
	if err := config.DB.Model(&models.Truck{}).
		Where("plate = ? AND entry_date = ? AND status IN ?", plate, date, models.ActiveStatuses).
		Count(&active).Error; err != nil {
		serverError(c, "RegisterEntry: duplicate lookup failed", err)
		return
	}
	if active > 0 {
		badRequest(c, "Ce camion est déjà entré aujourd'hui et n'est pas encore sorti", nil)
		return
	}

	// Arrival order is the same-day count at insert time; concurrent entries may share a number.
	var sameDay int64
	if err := config.DB.Model(&models.Truck{}).Where("entry_date = ?", date).Count(&sameDay).Error; err != nil {
		serverError(c, "RegisterEntry: arrival count failed", err)
		return
	}

	truck := models.Truck{
		Plate:        plate,
		Driver:       driver,
		EntryDate:    date,
		ArrivedAt:    arrivedAt,
		Status:       models.StatusWaiting,
		ArrivalOrder: int(sameDay) + 1,
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&truck).Error; err != nil {
			return err
		}
		return tx.Create(&models.StatusChange{
			TruckID:   truck.ID,
			ToStatus:  models.StatusWaiting,
			ChangedBy: middleware.GetUserID(c),
			Note:      "Entrée sur site",
		}).Error
	})
	if err != nil {
		serverError(c, "RegisterEntry: insert failed", err)
		return
	}

	yardHub.Publish(EventEntry, truck)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Camion enregistré avec succès",
		"camion":  truck,
	})
}

// ListTrucks returns every truck, earliest arrival first.
func ListTrucks(c *gin.Context) {
	trucks := []models.Truck{}
	if err := config.DB.Order("arrived_at ASC, id ASC").Find(&trucks).Error; err != nil {
		serverError(c, "ListTrucks: query failed", err)
		return
	}
	c.JSON(http.StatusOK, trucks)
}

type historyQuery struct {
	Date   string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Search string `form:"search"`
}

// TruckHistory searches past visits by day, plate or driver, latest first.
func TruckHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Paramètres de recherche invalides", err)
		return
	}
	trucks := []models.Truck{}
	err := config.DB.Scopes(reports.Filter{Date: q.Date, Search: q.Search}.Scope()).
		Order("arrived_at DESC, id DESC").
		Find(&trucks).Error
	if err != nil {
		serverError(c, "TruckHistory: query failed", err)
		return
	}
	c.JSON(http.StatusOK, trucks)
}

// LoadTruck marks a waiting truck as loaded.
func LoadTruck(c *gin.Context) {
	truck, ok := findTruck(c)
	if !ok {
		return
	}
	if err := transition(truck, models.StatusLoaded, middleware.GetUserID(c), "Chargement effectué", nil); err != nil {
		transitionError(c, truck, err)
		return
	}
	yardHub.Publish(EventLoaded, *truck)
	c.JSON(http.StatusOK, truck)
}

type amountItem struct {
	TruckID uint    `json:"camionId"`
	Amount  float64 `json:"montant"`
}

type validateInput struct {
	Amounts []amountItem `json:"montants" binding:"required,min=1"`
}

type itemError struct {
	TruckID uint   `json:"camionId"`
	Message string `json:"message"`
}

// ValidateLoading sets the amount due of loaded trucks and moves them to
// payment. Items are applied one by one; a failing item does not undo the others.
func ValidateLoading(c *gin.Context) {
	var input validateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Données invalides", err)
		return
	}

	userID := middleware.GetUserID(c)
	validated := []uint{}
	failures := []itemError{}
	for _, item := range input.Amounts {
		if item.Amount < 0 {
			failures = append(failures, itemError{item.TruckID, "Le montant ne peut pas être négatif"})
			continue
		}
		var truck models.Truck
		if err := config.DB.First(&truck, item.TruckID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				failures = append(failures, itemError{item.TruckID, "Camion non trouvé"})
				continue
			}
			serverError(c, "ValidateLoading: lookup failed", err)
			return
		}
		note := fmt.Sprintf("Montant dû fixé à %.0f", item.Amount)
		err := transition(&truck, models.StatusToPay, userID, note, map[string]interface{}{"amount_due": item.Amount})
		if err != nil {
			if errors.Is(err, statemachine.ErrTransitionRefused) {
				failures = append(failures, itemError{item.TruckID, err.Error()})
				continue
			}
			serverError(c, "ValidateLoading: update failed", err)
			return
		}
		validated = append(validated, truck.ID)
		yardHub.Publish(EventValidated, truck)
	}

	status := http.StatusOK
	message := "Chargement validé et montants définis"
	if len(validated) == 0 {
		status = http.StatusBadRequest
		message = "Aucun camion n'a pu être validé"
	}
	c.JSON(status, gin.H{
		"message": message,
		"valides": validated,
		"erreurs": failures,
	})
}

type exitInput struct {
	AmountPaid *float64 `json:"montantPaye"`
}

// RegisterExit records payment and departure of a truck awaiting payment.
// Without an amount the truck is taken to have paid exactly what it owed.
func RegisterExit(c *gin.Context) {
	var input exitInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Données invalides", err)
		return
	}
	truck, ok := findTruck(c)
	if !ok {
		return
	}
	if err := statemachine.CanTransition(truck.Status, models.StatusExited); err != nil {
		transitionError(c, truck, err)
		return
	}

	paid := truck.AmountDue
	if input.AmountPaid != nil {
		paid = *input.AmountPaid
	}
	if paid < truck.AmountDue {
		badRequest(c, fmt.Sprintf("Le montant payé (%.0f FCFA) est inférieur au montant dû (%.0f FCFA)", paid, truck.AmountDue), nil)
		return
	}

	departedAt := now()
	updates := map[string]interface{}{
		"amount_paid": paid,
		"departed_at": departedAt,
		"exit_date":   departedAt.Format(models.DateLayout),
	}
	note := fmt.Sprintf("Sortie, montant payé %.0f", paid)
	if err := transition(truck, models.StatusExited, middleware.GetUserID(c), note, updates); err != nil {
		transitionError(c, truck, err)
		return
	}
	yardHub.Publish(EventExit, *truck)
	c.JSON(http.StatusOK, truck)
}

// TruckStats is the live yard snapshot.
func TruckStats(c *gin.Context) {
	counts, err := reports.Live(config.DB)
	if err != nil {
		serverError(c, "TruckStats: aggregation failed", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// TruckStatusHistory returns the audit trail of one truck.
func TruckStatusHistory(c *gin.Context) {
	truck, ok := findTruck(c)
	if !ok {
		return
	}
	changes := []models.StatusChange{}
	if err := config.DB.Where("truck_id = ?", truck.ID).Order("created_at ASC, id ASC").Find(&changes).Error; err != nil {
		serverError(c, "TruckStatusHistory: query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"camion": truck, "historique": changes})
}

// Lifecycle documents the allowed status transitions.
func Lifecycle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statuts":     models.AllStatuses,
		"transitions": statemachine.Transitions(),
	})
}

// findTruck loads the truck named by :id, answering 400/404/500 itself on failure.
func findTruck(c *gin.Context) (*models.Truck, bool) {
	id, err := paramID(c)
	if err != nil {
		badRequest(c, "Identifiant de camion invalide", err)
		return nil, false
	}
	var truck models.Truck
	if err := config.DB.First(&truck, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(c, "Camion non trouvé")
		} else {
			serverError(c, "findTruck: lookup failed", err)
		}
		return nil, false
	}
	return &truck, true
}

// transition moves truck to status `to`, applying extra column updates and
// writing the audit row in one transaction. The update is conditional on the
// status read earlier so a concurrent move is refused instead of overwritten.
func transition(truck *models.Truck, to models.TruckStatus, userID uint, note string, updates map[string]interface{}) error {
	from := truck.Status
	if err := statemachine.CanTransition(from, to); err != nil {
		return err
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	return config.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Truck{}).Where("id = ? AND status = ?", truck.ID, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: le statut du camion a changé entre-temps", statemachine.ErrTransitionRefused)
		}
		if err := tx.Create(&models.StatusChange{
			TruckID:    truck.ID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  userID,
			Note:       note,
		}).Error; err != nil {
			return err
		}
		return tx.First(truck, truck.ID).Error
	})
}

// transitionError answers a refused transition with the current state and valid next steps.
func transitionError(c *gin.Context, truck *models.Truck, err error) {
	if !errors.Is(err, statemachine.ErrTransitionRefused) {
		serverError(c, "transition failed", err)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"message":       "Changement de statut impossible",
		"error":         err.Error(),
		"statutActuel":  truck.Status,
		"etatsSuivants": statemachine.ValidTransitionsFrom(truck.Status),
	})
}

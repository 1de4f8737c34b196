package controllers

import (
	"jofotara-backend/database"
	"jofotara-backend/middlewares"
	"jofotara-backend/models"
	"jofotara-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CustomerInput struct {
	CompanyName  string `json:"company_name" validate:"required"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	Country      string `json:"country" validate:"required"`
	Zip          string `json:"zip"`
	TIN          string `json:"tin"`
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	PhoneNumber  string `json:"phone_number" validate:"required"`
	MobileNumber string `json:"mobile_number"`
	Salutation   string `json:"salutation"`
	Title        string `json:"title"`
}

func CreateCustomer(c *fiber.Ctx) error {
	var input CustomerInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	customer := models.Customer{
		CompanyName:  input.CompanyName,
		Address:      input.Address,
		City:         input.City,
		Country:      input.Country,
		Zip:          input.Zip,
		TIN:          input.TIN,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		MobileNumber: input.MobileNumber,
		Salutation:   input.Salutation,
		Title:        input.Title,
		Active:       true,
	}
	if err := db.Create(&customer).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create customer: "+err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// CustomerPatch uses pointer fields so absent keys stay untouched.
type CustomerPatch struct {
	Address      *string `json:"address"`
	City         *string `json:"city"`
	Country      *string `json:"country"`
	Zip          *string `json:"zip"`
	TIN          *string `json:"tin"`
	Email        *string `json:"email" validate:"omitempty,email"`
	PhoneNumber  *string `json:"phone_number"`
	MobileNumber *string `json:"mobile_number"`
}

func UpdateCustomer(c *fiber.Ctx) error {
	var patch CustomerPatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&patch)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	updates := utils.UpdatesFromPtrDTO(&patch, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	var customer models.Customer
	if err := db.First(&customer, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "customer not found")
	}
	if err := db.Model(&customer).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update customer: "+err.Error())
	}
	return c.JSON(customer)
}

func GetCustomer(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	var customer models.Customer
	if err := db.First(&customer, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "customer not found")
	}
	return c.JSON(customer)
}

func GetCustomers(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	var customers []models.Customer
	if err := db.Order("company_name").Find(&customers).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list customers")
	}
	return c.JSON(fiber.Map{"customers": customers, "message": "success"})
}

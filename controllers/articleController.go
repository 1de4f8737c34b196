package controllers

import (
	"fmt"

	"jofotara-backend/database"
	"jofotara-backend/middlewares"
	"jofotara-backend/models"
	"jofotara-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ArticleInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Active      bool    `json:"active"`
}

// CreateArticles batch-creates catalog articles.
func CreateArticles(c *fiber.Ctx) error {
	var inputs []ArticleInput
	if err := c.BodyParser(&inputs); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	created := make([]models.Article, 0, len(inputs))
	for i := range inputs {
		if err := middlewares.ValidateStruct(&inputs[i]); err != nil {
			return err
		}
		utils.NormalizeDTO(&inputs[i])

		article := models.Article{
			Name:        inputs[i].Name,
			Description: inputs[i].Description,
			UnitPrice:   inputs[i].UnitPrice,
			Active:      inputs[i].Active,
		}
		if err := db.Create(&article).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError,
				fmt.Sprintf("could not create article at index %d: %s", i, err.Error()))
		}
		created = append(created, article)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func GetArticles(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	var articles []models.Article
	if err := db.Where("active = ?", true).Order("name").Find(&articles).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list articles")
	}
	return c.JSON(fiber.Map{"articles": articles, "message": "success"})
}

type ArticlePatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Active      *bool    `json:"active"`
}

func UpdateArticle(c *fiber.Ctx) error {
	var patch ArticlePatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&patch)

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	var article models.Article
	if err := db.First(&article, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "article not found")
	}

	updates := utils.UpdatesFromPtrDTO(&patch, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}
	if err := db.Model(&article).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update article: "+err.Error())
	}
	return c.JSON(article)
}

package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jawebhq/jaweb/internal/game"
)

type seedCategory struct {
	name     string
	icon     string
	children []seedCategory
}

var defaultCategories = []seedCategory{
	{name: "علوم", icon: "⚗️", children: []seedCategory{
		{name: "كيمياء", icon: "⚗️"},
		{name: "فيزياء", icon: "🔬"},
		{name: "أحياء", icon: "🧬"},
		{name: "فلك", icon: "🔭"},
	}},
	{name: "رياضيات", icon: "🧮", children: []seedCategory{
		{name: "جبر", icon: "➗"},
		{name: "هندسة", icon: "📐"},
		{name: "إحصاء", icon: "📊"},
		{name: "حساب", icon: "🔢"},
	}},
	{name: "ثقافة عامة", icon: "📚", children: []seedCategory{
		{name: "تاريخ", icon: "🏛️"},
		{name: "جغرافيا", icon: "🌍"},
		{name: "فن", icon: "🎨"},
		{name: "أدب", icon: "📖"},
		{name: "موسيقى", icon: "🎵"},
		{name: "رياضة", icon: "⚽"},
	}},
	{name: "تقنية", icon: "💻", children: []seedCategory{
		{name: "برمجة", icon: "👨‍💻"},
		{name: "شبكات", icon: "🌐"},
		{name: "ذكاء صناعي", icon: "🤖"},
		{name: "تطبيقات", icon: "📱"},
	}},
}

type seedQuestion struct {
	category   string
	difficulty int
	text       string
	answer     string
}

var defaultQuestions = []seedQuestion{
	{"علوم", game.DifficultyEasy, "ما هو الرمز الكيميائي للماء؟", "H2O"},
	{"علوم", game.DifficultyMedium, "ما هو أقرب كوكب إلى الشمس؟", "عطارد"},
	{"علوم", game.DifficultyHard, "ما اسم الجسيم الذي يحمل شحنة سالبة في الذرة؟", "الإلكترون"},
	{"رياضيات", game.DifficultyEasy, "كم يساوي 7 × 8؟", "56"},
	{"رياضيات", game.DifficultyMedium, "ما هو الجذر التربيعي للعدد 144؟", "12"},
	{"رياضيات", game.DifficultyHard, "ما مجموع زوايا المثلث بالدرجات؟", "180"},
	{"ثقافة عامة", game.DifficultyEasy, "ما هي عاصمة فرنسا؟", "باريس"},
	{"ثقافة عامة", game.DifficultyMedium, "في أي قارة تقع دولة البرازيل؟", "أمريكا الجنوبية"},
	{"ثقافة عامة", game.DifficultyHard, "من مؤلف مقدمة ابن خلدون؟", "ابن خلدون"},
	{"تقنية", game.DifficultyEasy, "ماذا يعني الاختصار WWW؟", "World Wide Web"},
	{"تقنية", game.DifficultyMedium, "ما اسم أول حاسوب إلكتروني في العالم؟", "إنياك"},
	{"تقنية", game.DifficultyHard, "في أي عام ظهرت لغة البرمجة Go؟", "2009"},
}

// Seed loads the default catalog into an empty store. Stores that already
// hold categories are left alone, so restarting never duplicates data.
func Seed(ctx context.Context, logger *slog.Logger, store Store) error {
	existing, err := store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	byName := map[string]int64{}
	for _, c := range defaultCategories {
		created, err := store.CreateCategory(ctx, CategoryRecord{Name: c.name, Icon: c.icon, IsActive: true})
		if err != nil {
			return fmt.Errorf("seeding category %q: %w", c.name, err)
		}
		byName[c.name] = created.ID

		for _, child := range c.children {
			parentID := created.ID
			if _, err := store.CreateCategory(ctx, CategoryRecord{
				ParentID: &parentID,
				Name:     child.name,
				Icon:     child.icon,
				IsActive: true,
			}); err != nil {
				return fmt.Errorf("seeding subcategory %q: %w", child.name, err)
			}
		}
	}

	for _, q := range defaultQuestions {
		if _, err := store.CreateQuestion(ctx, game.BankQuestion{
			Text:          q.text,
			CorrectAnswer: q.answer,
			CategoryID:    byName[q.category],
			Difficulty:    q.difficulty,
			Points:        q.difficulty * 100,
			IsActive:      true,
		}); err != nil {
			return fmt.Errorf("seeding question: %w", err)
		}
	}

	logger.Info("seeded default catalog",
		"categories", len(defaultCategories),
		"questions", len(defaultQuestions))
	return nil
}

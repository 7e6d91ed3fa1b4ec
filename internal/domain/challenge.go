package domain

// Уровень сложности задачи
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid проверяет, что уровень из каталога
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Пара вход/ожидаемый выход
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Запись каталога задач, только для чтения
type Challenge struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Difficulty  Difficulty `db:"difficulty" json:"difficulty"`
	TestCases   []TestCase `db:"test_cases" json:"test_cases"`
	StarterCode string     `db:"starter_code" json:"starter_code"`
}

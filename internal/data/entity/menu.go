package entity

type MenuItem struct {
	BaseSimple
	Title       string  `db:"title"`
	Description string  `db:"description"`
	Image       string  `db:"image"`
	Price       float64 `db:"price"`
}

package domain

// PlanLocation — один пункт плана: место или активность.
type PlanLocation struct {
	Name        string   `json:"name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	Description string   `json:"description"`
}

// EventPlan — итоговый JSON, который агент-планировщик обязан вернуть
// одним цельным объектом. Структура зафиксирована в промпте.
type EventPlan struct {
	FriendsNameList        []string       `json:"friends_name_list"`
	EventName              string         `json:"event_name"`
	EventDate              string         `json:"event_date"`
	EventDescription       string         `json:"event_description"`
	LocationsAndActivities []PlanLocation `json:"locations_and_activities"`
	PostToGoOut            string         `json:"post_to_go_out"`
}

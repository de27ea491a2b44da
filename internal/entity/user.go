package entity

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"gamesPlayed"`
	GamesWon    int    `json:"gamesWon"`
	GamesLost   int    `json:"gamesLost"`
	GamesDrawn  int    `json:"gamesDrawn"`
}

func NewUser(id, username string) *User {
	return &User{
		ID:       id,
		Username: username,
		Rating:   DefaultRating,
	}
}

package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/jawebhq/jaweb/internal/game"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Jaweb API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Jaweb trivia game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]struct {
		Status string `json:"status"`
	}{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/auth/register")
	postRegister.SetSummary("Register")
	postRegister.SetDescription("Creates a user account and returns a session token.")
	postRegister.AddReqStructure(CredentialsRequest{})
	postRegister.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRegister)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Authenticates with username and password. Returns a session token.")
	postLogin.AddReqStructure(CredentialsRequest{})
	postLogin.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/auth/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/auth/logout")
	postLogout.SetSummary("Log out")
	postLogout.SetDescription("Invalidates the caller's session token.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/auth/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/auth/me")
	getMe.SetSummary("Current user")
	getMe.SetDescription("Returns the currently authenticated user. Requires Bearer token.")
	getMe.AddRespStructure(UserInfo{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/categories
	getCategories, _ := r.NewOperationContext(http.MethodGet, "/api/categories")
	getCategories.SetSummary("List active categories")
	getCategories.SetDescription("Returns active categories with their active subcategories for game setup.")
	getCategories.AddRespStructure([]game.Category{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCategories)

	// GET /api/settings
	getSettings, _ := r.NewOperationContext(http.MethodGet, "/api/settings")
	getSettings.SetSummary("Game settings")
	getSettings.SetDescription("Returns the limits applied when creating a game.")
	getSettings.AddRespStructure(game.Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSettings)

	// POST /api/games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGame.SetSummary("Create game")
	postGame.SetDescription("Creates a game session with teams and a question grid. Requires Bearer token.")
	postGame.AddReqStructure(CreateGameRequest{})
	postGame.AddRespStructure(CreateGameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postGame)

	// GET /api/games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/api/games")
	listGames.SetSummary("List my games")
	listGames.SetDescription("Returns the caller's game sessions in creation order. Requires Bearer token.")
	listGames.AddRespStructure([]GameSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listGames)

	// GET /api/games/{gameID}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}")
	getGame.SetSummary("Get game")
	getGame.SetDescription("Returns the full game board state. Requires Bearer token.")
	getGame.AddRespStructure(GameView{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// GET /api/games/{gameID}/results
	getResults, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/results")
	getResults.SetSummary("Game results")
	getResults.SetDescription("Returns final scores and the winning team. Requires Bearer token.")
	getResults.AddRespStructure(GameResult{}, openapi.WithHTTPStatus(http.StatusOK))
	getResults.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getResults)

	// GET /api/games/{gameID}/questions/{questionID}
	getQuestion, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/questions/{questionID}")
	getQuestion.SetSummary("Question for a board cell")
	getQuestion.SetDescription("Resolves a board cell to a question from the bank. Requires Bearer token.")
	getQuestion.AddRespStructure(QuestionDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getQuestion)

	// POST /api/games/{gameID}/score
	postScore, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/score")
	postScore.SetSummary("Update team score")
	postScore.SetDescription("Applies a score delta to one team. Rejected once the game has ended. Requires Bearer token.")
	postScore.AddReqStructure(UpdateScoreRequest{})
	postScore.AddRespStructure(GameView{}, openapi.WithHTTPStatus(http.StatusOK))
	postScore.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postScore.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postScore)

	// POST /api/games/{gameID}/turn
	postTurn, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/turn")
	postTurn.SetSummary("Set current team")
	postTurn.SetDescription("Moves the turn marker to the given team. Requires Bearer token.")
	postTurn.AddReqStructure(AdvanceTurnRequest{})
	postTurn.AddRespStructure(GameView{}, openapi.WithHTTPStatus(http.StatusOK))
	postTurn.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postTurn)

	// POST /api/games/{gameID}/answered
	postAnswered, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/answered")
	postAnswered.SetSummary("Record answered questions")
	postAnswered.SetDescription("Marks board cells answered and records them in the viewed ledger. Requires Bearer token.")
	postAnswered.AddReqStructure(RecordAnsweredRequest{})
	postAnswered.AddRespStructure(GameView{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswered.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswered)

	// POST /api/games/{gameID}/end
	postEnd, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/end")
	postEnd.SetSummary("End game")
	postEnd.SetDescription("Declares the winner and makes the session read-only. Requires Bearer token.")
	postEnd.AddRespStructure(GameView{}, openapi.WithHTTPStatus(http.StatusOK))
	postEnd.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postEnd)

	// POST /api/games/{gameID}/save
	postSave, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/save")
	postSave.SetSummary("Save and exit")
	postSave.SetDescription("Flags the session as a resumable checkpoint. Requires Bearer token.")
	postSave.AddRespStructure(GameView{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postSave)

	// GET /api/games/{gameID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of score, turn, and board updates. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /ws/activity
	getActivity, _ := r.NewOperationContext(http.MethodGet, "/ws/activity")
	getActivity.SetSummary("Admin activity feed")
	getActivity.SetDescription("Upgrades to a WebSocket that streams catalog change events.")
	getActivity.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getActivity)

	// GET /api/admin/categories
	listAdminCategories, _ := r.NewOperationContext(http.MethodGet, "/api/admin/categories")
	listAdminCategories.SetSummary("List all categories")
	listAdminCategories.AddRespStructure([]game.Category{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listAdminCategories)

	// POST /api/admin/categories
	createCategory, _ := r.NewOperationContext(http.MethodPost, "/api/admin/categories")
	createCategory.SetSummary("Create category")
	createCategory.AddReqStructure(CategoryRecord{})
	createCategory.AddRespStructure(CategoryRecord{}, openapi.WithHTTPStatus(http.StatusCreated))
	createCategory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createCategory)

	// PUT /api/admin/categories/{categoryID}
	updateCategory, _ := r.NewOperationContext(http.MethodPut, "/api/admin/categories/{categoryID}")
	updateCategory.SetSummary("Update category")
	updateCategory.AddReqStructure(CategoryRecord{})
	updateCategory.AddRespStructure(CategoryRecord{}, openapi.WithHTTPStatus(http.StatusOK))
	updateCategory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateCategory)

	// DELETE /api/admin/categories/{categoryID}
	deleteCategory, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/categories/{categoryID}")
	deleteCategory.SetSummary("Delete category")
	deleteCategory.SetDescription("Blocked while questions still reference the category.")
	deleteCategory.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteCategory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(deleteCategory)

	// GET /api/admin/questions
	listQuestions, _ := r.NewOperationContext(http.MethodGet, "/api/admin/questions")
	listQuestions.SetSummary("List bank questions")
	listQuestions.SetDescription("Filterable by category, subcategory, difficulty, text search, and active flag.")
	listQuestions.AddRespStructure(QuestionListResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listQuestions)

	// GET /api/admin/questions/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/admin/questions/stats")
	getStats.SetSummary("Question bank statistics")
	getStats.AddRespStructure(QuestionStats{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStats)

	// POST /api/admin/questions
	createQuestion, _ := r.NewOperationContext(http.MethodPost, "/api/admin/questions")
	createQuestion.SetSummary("Create bank question")
	createQuestion.AddReqStructure(game.BankQuestion{})
	createQuestion.AddRespStructure(game.BankQuestion{}, openapi.WithHTTPStatus(http.StatusCreated))
	createQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createQuestion)

	// GET /api/admin/questions/{questionID}
	getBankQuestion, _ := r.NewOperationContext(http.MethodGet, "/api/admin/questions/{questionID}")
	getBankQuestion.SetSummary("Get bank question")
	getBankQuestion.AddRespStructure(game.BankQuestion{}, openapi.WithHTTPStatus(http.StatusOK))
	getBankQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getBankQuestion)

	// PUT /api/admin/questions/{questionID}
	updateQuestion, _ := r.NewOperationContext(http.MethodPut, "/api/admin/questions/{questionID}")
	updateQuestion.SetSummary("Update bank question")
	updateQuestion.AddReqStructure(game.BankQuestion{})
	updateQuestion.AddRespStructure(game.BankQuestion{}, openapi.WithHTTPStatus(http.StatusOK))
	updateQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateQuestion)

	// DELETE /api/admin/questions/{questionID}
	deleteQuestion, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/questions/{questionID}")
	deleteQuestion.SetSummary("Delete bank question")
	deleteQuestion.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteQuestion)

	// PUT /api/admin/settings
	putSettings, _ := r.NewOperationContext(http.MethodPut, "/api/admin/settings")
	putSettings.SetSummary("Update game settings")
	putSettings.AddReqStructure(game.Settings{})
	putSettings.AddRespStructure(game.Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	putSettings.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putSettings)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

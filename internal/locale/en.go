package locale

// english is the fallback language table. Every id referenced anywhere
// in the server must appear here; other languages may cover a subset
// and fall back per id.
var english = map[string]string{
	"list_separator": ", ",
	"list_and":       " and ",

	// generic game flow
	"game_started":   "The game has started!",
	"turn_announce":  "It is {player}'s turn.",
	"your_turn":      "It is your turn.",
	"whose_turn":     "It is {player}'s turn.",
	"player_skipped": "{player} is skipped.",
	"game_won":       "{player} wins the game!",
	"game_over":      "The game is over.",
	"round_begin":    "Round {round} begins.",
	"internal_error": "Something went wrong with that action. The game continues.",

	// lobby
	"action_start_game":       "Start the game",
	"action_add_bot":          "Add a bot",
	"action_remove_bot":       "Remove a bot",
	"action_become_spectator": "Become a spectator",
	"action_join_game":        "Join the game",
	"action_leave_game":       "Leave the table",
	"action_save_table":       "Save the table",
	"action_show_actions":     "Actions",
	"action_whose_turn":       "Whose turn is it?",
	"action_check_scores":     "Check scores",
	"action_check_scores_detailed": "Check scores in detail",
	"action_estimate_duration":     "Estimate game duration",
	"action_table_options":         "Review the table options",
	"action_music_time":            "How much music is left?",

	"bot_added":             "{player} the bot joins the table.",
	"bot_removed":           "{player} the bot leaves the table.",
	"player_now_spectating": "{player} is now spectating.",
	"player_now_playing":    "{player} joins the game.",
	"player_joined":         "{player} has joined the table.",
	"player_left":           "{player} has left the table.",
	"player_replaced_by_bot": "{player} left and a bot takes over their seat.",
	"host_now":              "{player} is now the table host.",
	"table_saved":           "The table has been saved.",
	"table_resumed":         "The table has been resumed from a save.",
	"table_closed":          "The table has been closed.",
	"music_time_left":       "About {seconds} seconds of music remain.",

	// disable reasons
	"error_host_only":       "Only the host can do that.",
	"error_min_players":     "Not enough players to start.",
	"error_table_full":      "The table is full.",
	"error_no_bots":         "There are no bots to remove.",
	"error_not_playing":     "The game has not started.",
	"error_already_started": "The game has already started.",
	"error_no_scores":       "There are no scores yet.",
	"error_bad_team_mode":   "That team arrangement does not work for this table.",
	"error_not_your_turn":   "It is not your turn.",

	// duration estimator
	"estimate_started": "Estimating game duration in the background...",
	"estimate_running": "An estimate is already running.",
	"estimate_failed":  "The duration estimate failed: {error}",
	"estimate_result":  "Estimated duration: about {human} ticks at your speed ({mean} base, stddev {stddev}, {outliers} outliers dropped).",

	// keybind descriptions
	"kb_whose_turn":            "announce whose turn it is",
	"kb_check_scores":          "read the scores",
	"kb_check_scores_detailed": "open the detailed score list",
	"kb_actions_menu":          "open the actions menu",
	"kb_save_table":            "save and close the table",
	"kb_music_time":            "ask how much music remains",

	// main menu
	"menu_create_game":    "Create a game",
	"menu_join_table":     "Join a table",
	"menu_resume_saved":   "Resume a saved game",
	"menu_client_options": "Options",
	"menu_game_entry":     "{name} ({min}-{max} players)",
	"menu_table_entry":    "{host}'s table: {game}, {players} players, {status}",
	"menu_saved_entry":    "{name}, saved {date} at tick {tick}",
	"tables_none":         "There are no open tables right now.",
	"saves_none":          "You have no saved games.",
	"saves_load_failed":   "Could not load your saved games.",

	// table directory errors
	"table_error_generic":        "That did not work.",
	"table_error_too_many":       "The server has too many tables open right now.",
	"table_error_already_seated": "You are already at a table.",
	"table_error_unknown_table":  "That table no longer exists.",
	"table_error_unknown_game":   "That game is not available.",
	"table_error_no_save":        "That saved game no longer exists.",
	"table_error_full":           "That table is full.",

	// chat
	"chat_global": "{player} (global): {message}",
	"chat_table":  "{player}: {message}",
	"chat_muted":  "You have this chat muted.",

	// game names
	"game_lrc_name":    "Left, Right, Center",
	"game_pig_name":    "Pig",
	"game_crazy8_name": "Crazy Eights",

	// Left, Right, Center
	"lrc_action_roll":    "Roll the dice",
	"lrc_rolled":         "{player} rolls: {dice}.",
	"lrc_pass_left":      "{player} passes a chip to the left, to {target}.",
	"lrc_pass_right":     "{player} passes a chip to the right, to {target}.",
	"lrc_pass_center":    "{player} puts a chip in the center pot.",
	"lrc_keeps":          "{player} keeps their chips this roll.",
	"lrc_chips":          "{player} has {count} chips.",
	"lrc_no_chips":       "{player} has no chips and rolls nothing.",
	"lrc_status_chips":   "Chips: {count}",
	"lrc_status_pot":     "Center pot: {count}",
	"lrc_err_roll_first": "You cannot roll right now.",

	// Pig
	"pig_action_roll":  "Roll the die",
	"pig_action_hold":  "Hold and bank your points",
	"pig_rolled":       "{player} rolls a {value}.",
	"pig_busted":       "{player} rolls a one and loses the turn's points!",
	"pig_held":         "{player} holds and banks {points} points.",
	"pig_turn_total":   "Turn total: {points}.",
	"pig_err_not_turn":        "It is not your turn.",
	"pig_err_nothing_to_hold": "You have no points to bank yet.",

	// Crazy Eights
	"crazy8_action_draw":        "Draw a card",
	"crazy8_action_play":        "Play {card}",
	"crazy8_action_status":      "Check the discard pile",
	"crazy8_top_card":           "The top card is {card}.",
	"crazy8_wild_suit":          "The suit is now {suit}.",
	"crazy8_choose_suit":        "Choose a suit",
	"crazy8_played":             "{player} plays {card}.",
	"crazy8_drew":               "{player} draws a card.",
	"crazy8_drew_count":         "You draw {card}.",
	"crazy8_hand_count":         "{player} has {count} cards.",
	"crazy8_suit_clubs":         "Clubs",
	"crazy8_suit_diamonds":      "Diamonds",
	"crazy8_suit_hearts":        "Hearts",
	"crazy8_suit_spades":        "Spades",
	"crazy8_err_cannot_play":    "You cannot play that card.",
	"crazy8_err_no_suit_choice": "You are not choosing a suit right now.",
}

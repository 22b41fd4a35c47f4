package command

import "github.com/go-telegram/bot/models"

const (
	inlineButtonText = "Say hi"
	inlineButtonData = "echo Hello from button"
)

// MenuKeyboard offers the most common commands as one-tap buttons.
func MenuKeyboard() models.ReplyMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: "/help"}, {Text: "/ping"}},
			{{Text: "/whoami"}},
		},
		OneTimeKeyboard: true,
	}
}

// ShareKeyboard asks the user for their contact and location.
func ShareKeyboard() models.ReplyMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: "Share contact", RequestContact: true}, {Text: "Share location", RequestLocation: true}},
		},
		OneTimeKeyboard: true,
	}
}

func InlineKeyboard() models.ReplyMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: inlineButtonText, CallbackData: inlineButtonData}},
		},
	}
}

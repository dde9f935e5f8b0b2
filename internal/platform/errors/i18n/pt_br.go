package i18n

var ptBRMessages = map[Code]string{
	CodeInvalidTimezone:                   "O fuso horário {{.Timezone}} está fora do intervalo de -12 a +12.",
	CodeInvalidStartTime:                  "O início deve ser meia-noite no fuso do desafio.",
	CodeInvalidEndTime:                    "O fim deve ser meia-noite no fuso do desafio.",
	CodeInvalidTimeRange:                  "O início deve ser anterior ao fim.",
	CodeStartTimeNotInFuture:              "O início deve estar no futuro.",
	CodeInvalidCommand:                    "A requisição está malformada.",
	CodeNotEnoughFunds:                    "Fundos insuficientes: esperado {{.Expected}}, recebido {{.Actual}}.",
	CodePrizePoolOverflow:                 "O prêmio acumulado não comporta este pagamento.",
	CodeChallengeAlreadyExists:            "O desafio já existe.",
	CodeChallengeNotRecruiting:            "O desafio não está recrutando.",
	CodeChallengeNotRecruitingOrExecuting: "O desafio não está recrutando nem em execução.",
	CodeChallengeNotExecuting:             "O desafio não está em execução.",
	CodeParticipantAlreadyJoined:          "Você já entrou neste desafio.",
	CodeParticipantNotFound:               "Você não participa deste desafio.",
	CodeDayOutOfRange:                     "O dia {{.Day}} está fora da janela de {{.ExecutionDays}} dias.",
	CodeCommandTypeUnsupported:            "Este comando não é suportado.",
	CodeFailedToScheduleRecruitmentEnd:    "Não foi possível agendar o fim do recrutamento.",
	CodeFailedToScheduleExecutionEnd:      "Não foi possível agendar o fim da execução.",
	CodeTransitionBeforeTargetTime:        "Esta transição vence em {{.Target}}, não em {{.Now}}.",
	CodeInternalMethodCalledExternally:    "Apenas o próprio programa pode enviar este comando.",
	CodeSendError:                         "O envio do prêmio de {{.Prize}} para {{.Account}} falhou.",
	CodeRecruitEndedWithNoParticipants:    "O recrutamento terminou sem participantes.",
	CodeChallengeNotFound:                 "O desafio {{.ID}} não foi encontrado.",
}

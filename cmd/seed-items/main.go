package main

import (
	"context"
	"fmt"
	"time"

	"github.com/oazco/profiler-backend/internal/config"
	"github.com/oazco/profiler-backend/internal/database"
	"github.com/oazco/profiler-backend/internal/logger"
	"github.com/oazco/profiler-backend/internal/model"
	"github.com/oazco/profiler-backend/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	itemRepo := repository.NewItemRepository(pool)

	// Idempotent: a non-empty bank means seeding already ran.
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		log.Fatal().Err(err).Msg("Failed to check existing items")
	}
	if count > 0 {
		fmt.Printf("Item bank already has %d items. Nothing to do.\n", count)
		return
	}

	items := append(adaptiveItems(), matrixItems()...)

	fmt.Printf("=== Seeding %d Items ===\n", len(items))

	successCount := 0
	for i, item := range items {
		if err := itemRepo.Create(ctx, item); err != nil {
			fmt.Printf("Error creating item %q: %v\n", item.Stem, err)
		} else {
			successCount++
			if (i+1)%10 == 0 {
				fmt.Printf("Created %d items...\n", i+1)
			}
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d items.\n", successCount, len(items))
}

func choice(typ model.ItemType, stem, competency string, b, a float64, choices [4]string, answerKey, tags string) *model.Item {
	item := model.NewChoiceItem(typ, stem, model.ChoicePayload{
		Competency:     competency,
		Difficulty:     b,
		Discrimination: a,
		Choices:        choices[:],
		AnswerKey:      answerKey,
	})
	item.Tags = tags
	return item
}

func open(typ model.ItemType, stem, competency string, b, a float64, rubric map[string]string, tags string) *model.Item {
	item := model.NewOpenItem(typ, stem, model.OpenPayload{
		Competency:     competency,
		Difficulty:     b,
		Discrimination: a,
		Rubric:         rubric,
	})
	item.Tags = tags
	return item
}

// matrixItem builds a bank matrix item. Bank choices are written in maturity
// order, so the points map is the identity A=1..D=4; shuffling only applies
// to generated items.
func matrixItem(stem, block string, choices [4]string) *model.Item {
	item := model.NewMatrixItem(stem, model.MatrixPayload{
		Block:          block,
		Choices:        choices[:],
		PointsByLetter: map[string]int{"A": 1, "B": 2, "C": 3, "D": 4},
	})
	item.Tags = "bank,matrix"
	return item
}

func adaptiveItems() []*model.Item {
	return []*model.Item{
		// ─── Fundamentos de IA/ML & LLMs ───────────────────────────────
		choice(model.ItemTypeMCQ,
			"O que significa a sigla LLM no contexto de inteligência artificial?",
			"Fundamentos de IA/ML & LLMs", 0, 0.8,
			[4]string{
				"Large Language Model",
				"Linear Learning Machine",
				"Logical Language Mechanism",
				"Limited Learning Model",
			}, "A", "fundamentos,llm,conceitos"),
		choice(model.ItemTypeMCQ,
			"Qual das seguintes NÃO é uma característica dos modelos GPT?",
			"Fundamentos de IA/ML & LLMs", 1, 0.7,
			[4]string{
				"Processamento de linguagem natural",
				"Geração de texto baseada em contexto",
				"Determinístico (sempre gera a mesma resposta)",
				"Treinamento com grandes volumes de dados",
			}, "C", "fundamentos,gpt,características"),
		open(model.ItemTypeOpenEnded,
			"Explique brevemente o conceito de \"fine-tuning\" em modelos de IA.",
			"Fundamentos de IA/ML & LLMs", 2, 0.6,
			map[string]string{
				"relevancia": "Menciona ajuste de modelo pré-treinado",
				"precisao":   "Explica uso de dados específicos do domínio",
				"completude": "Menciona melhoria de performance em tarefa específica",
			}, "fundamentos,fine-tuning,conceitos"),
		choice(model.ItemTypeMCQ,
			"Transformers revolucionaram o processamento de linguagem natural. Qual é o principal mecanismo que os diferencia?",
			"Fundamentos de IA/ML & LLMs", 2, 0.7,
			[4]string{
				"Redes neurais convolucionais",
				"Mecanismo de atenção (attention mechanism)",
				"Árvores de decisão",
				"Redes neurais recorrentes simples",
			}, "B", "fundamentos,transformers,arquitetura"),

		// ─── Ferramentas de IA no dia a dia ────────────────────────────
		choice(model.ItemTypeMCQ,
			"Qual ferramenta de IA você usa com mais frequência no seu trabalho?",
			"Ferramentas de IA no dia a dia", 0, 0.5,
			[4]string{
				"ChatGPT ou Claude",
				"GitHub Copilot ou similar",
				"Ferramentas de geração de imagem (DALL-E, Midjourney)",
				"Ainda não uso ferramentas de IA regularmente",
			}, "A", "ferramentas,uso,cotidiano"),
		choice(model.ItemTypeScenario,
			"Você precisa resumir 50 PDFs de pesquisa. Qual abordagem seria mais eficiente com IA?",
			"Ferramentas de IA no dia a dia", 1, 0.7,
			[4]string{
				"Copiar e colar cada PDF no ChatGPT manualmente",
				"Usar uma ferramenta com processamento em lote (batch) e RAG",
				"Pedir para o ChatGPT \"resumir 50 PDFs\"",
				"Ler todos manualmente e depois pedir resumo",
			}, "B", "ferramentas,produtividade,rag"),
		open(model.ItemTypeOpenEnded,
			"Descreva uma situação real em que você usou (ou usaria) IA para automatizar uma tarefa repetitiva.",
			"Ferramentas de IA no dia a dia", 1, 0.6,
			map[string]string{
				"relevancia": "Descreve tarefa repetitiva clara",
				"precisao":   "Menciona ferramenta ou abordagem específica",
				"completude": "Explica benefício ou resultado",
			}, "ferramentas,automação,prática"),
		choice(model.ItemTypeMCQ,
			"Para integrar IA generativa em um produto, qual ferramenta oferece melhor controle de custos e latência?",
			"Ferramentas de IA no dia a dia", 2, 0.8,
			[4]string{
				"Usar apenas APIs públicas sem monitoramento",
				"Self-hosting de modelos open-source otimizados",
				"Sempre usar o modelo mais avançado disponível",
				"Evitar cache e sempre fazer novas requisições",
			}, "B", "ferramentas,custos,produção"),

		// ─── Prompt Engineering & Orquestração ─────────────────────────
		open(model.ItemTypePromptWriting,
			"Escreva um prompt para um LLM extrair os principais insights de um relatório de vendas trimestral.",
			"Prompt Engineering & Orquestração", 1, 0.7,
			map[string]string{
				"relevancia":   "Prompt direcionado para extração de insights",
				"precisao":     "Especifica formato de saída ou pontos-chave",
				"completude":   "Inclui contexto sobre o relatório",
				"objetividade": "Claro e acionável",
			}, "prompt,engineering,prática"),
		choice(model.ItemTypeMCQ,
			"O que é \"chain-of-thought prompting\"?",
			"Prompt Engineering & Orquestração", 1, 0.8,
			[4]string{
				"Encadear múltiplas APIs em sequência",
				"Pedir ao modelo para raciocinar passo a passo",
				"Usar prompts muito longos",
				"Fazer perguntas em cadeia ao usuário",
			}, "B", "prompt,chain-of-thought,técnicas"),
		choice(model.ItemTypeMCQ,
			"Você quer que o LLM gere respostas em JSON estruturado. Qual técnica é mais eficaz?",
			"Prompt Engineering & Orquestração", 1, 0.7,
			[4]string{
				"Apenas pedir \"responda em JSON\"",
				"Fornecer schema e exemplo no prompt",
				"Usar temperatura muito alta para criatividade",
				"Não especificar formato e parsear depois",
			}, "B", "prompt,json,estruturado"),
		open(model.ItemTypeOpenEnded,
			"Explique o conceito de \"orquestração de agentes\" e dê um exemplo de uso.",
			"Prompt Engineering & Orquestração", 2, 0.6,
			map[string]string{
				"relevancia": "Define orquestração de múltiplos agentes",
				"precisao":   "Menciona coordenação ou frameworks",
				"completude": "Fornece exemplo prático de caso de uso",
			}, "orquestração,agentes,conceitos"),

		// ─── Dados & Contextualização (RAG) ────────────────────────────
		choice(model.ItemTypeMCQ,
			"O que significa RAG (Retrieval-Augmented Generation)?",
			"Dados & Contextualização (RAG)", 0, 0.8,
			[4]string{
				"Recuperar informações de uma base antes de gerar resposta",
				"Gerar dados aleatórios para treinar modelos",
				"Revisar automaticamente a gramática de textos",
				"Reduzir o tamanho de arquivos grandes",
			}, "A", "rag,conceitos,fundamentos"),
		choice(model.ItemTypeMCQ,
			"Qual é o principal benefício de usar embeddings em sistemas RAG?",
			"Dados & Contextualização (RAG)", 1, 0.7,
			[4]string{
				"Reduzir custos de armazenamento",
				"Busca semântica mais precisa do que keyword matching",
				"Aumentar a velocidade de escrita no banco",
				"Eliminar a necessidade de LLMs",
			}, "B", "rag,embeddings,busca"),
		choice(model.ItemTypeScenario,
			"Você tem uma base com 10.000 documentos técnicos. Como implementaria um sistema de Q&A com RAG?",
			"Dados & Contextualização (RAG)", 2, 0.7,
			[4]string{
				"Enviar todos os 10k docs em cada prompt",
				"Criar embeddings, indexar em vector DB, recuperar top-k relevantes",
				"Usar apenas busca por palavras-chave no Google",
				"Treinar um modelo do zero com os documentos",
			}, "B", "rag,implementação,vectordb"),
		open(model.ItemTypeOpenEnded,
			"Descreva estratégias para melhorar a qualidade das respostas em um sistema RAG.",
			"Dados & Contextualização (RAG)", 2, 0.6,
			map[string]string{
				"relevancia": "Menciona técnicas de melhoria de retrieval ou geração",
				"precisao":   "Cita métodos específicos (reranking, chunking, etc)",
				"completude": "Aborda múltiplas dimensões do pipeline",
			}, "rag,qualidade,otimização"),

		// ─── Automação de Processos com IA ─────────────────────────────
		choice(model.ItemTypeMCQ,
			"Qual processo empresarial é MAIS adequado para automação com IA generativa?",
			"Automação de Processos com IA", 1, 0.7,
			[4]string{
				"Decisões estratégicas de alto risco sem supervisão",
				"Triagem e categorização de e-mails de suporte",
				"Cirurgias médicas autônomas",
				"Aprovação final de orçamentos corporativos",
			}, "B", "automação,processos,casos-de-uso"),
		choice(model.ItemTypeScenario,
			"Você quer automatizar a geração de relatórios semanais. Qual abordagem é mais robusta?",
			"Automação de Processos com IA", 1, 0.6,
			[4]string{
				"Copiar e colar dados manualmente no ChatGPT toda semana",
				"Criar pipeline: extração de dados → LLM com template → revisão humana",
				"Deixar IA decidir sozinha o que incluir sem validação",
				"Fazer tudo manualmente para evitar erros",
			}, "B", "automação,pipeline,boas-práticas"),
		open(model.ItemTypeOpenEnded,
			"Descreva um processo na sua área que poderia ser parcialmente automatizado com IA e como você o faria.",
			"Automação de Processos com IA", 1, 0.7,
			map[string]string{
				"relevancia": "Identifica processo claro e viável",
				"precisao":   "Descreve etapas de automação",
				"completude": "Considera validação humana ou riscos",
			}, "automação,prática,planejamento"),
		choice(model.ItemTypeMCQ,
			"Qual é o principal risco ao automatizar processos críticos exclusivamente com IA?",
			"Automação de Processos com IA", 2, 0.8,
			[4]string{
				"Economia de tempo",
				"Falta de supervisão humana em decisões importantes",
				"Redução de custos operacionais",
				"Aumento de eficiência",
			}, "B", "automação,riscos,governança"),

		// ─── Ética, Segurança & Compliance ─────────────────────────────
		choice(model.ItemTypeMCQ,
			"Por que é importante revisar outputs de IA antes de usar em contextos públicos ou sensíveis?",
			"Ética, Segurança & Compliance", 0, 0.9,
			[4]string{
				"IA pode gerar conteúdo incorreto, enviesado ou inadequado",
				"Para aumentar o custo do projeto",
				"Porque IA nunca erra",
				"Não é necessário revisar",
			}, "A", "ética,revisão,qualidade"),
		choice(model.ItemTypeScenario,
			"Sua empresa quer usar IA para análise de CVs. Qual prática é essencial para evitar viés discriminatório?",
			"Ética, Segurança & Compliance", 1, 0.8,
			[4]string{
				"Usar IA sem nenhuma validação",
				"Auditar regularmente as decisões e remover atributos sensíveis (raça, gênero, idade)",
				"Confiar 100% nas recomendações da IA",
				"Usar apenas modelos treinados com dados antigos",
			}, "B", "ética,viés,rh"),
		choice(model.ItemTypeScenario,
			"Você descobre que um prompt pode fazer o LLM vazar informações confidenciais. O que fazer?",
			"Ética, Segurança & Compliance", 2, 0.9,
			[4]string{
				"Ignorar o problema",
				"Reportar imediatamente e implementar filtros de segurança",
				"Compartilhar publicamente sem avisar a empresa",
				"Usar o prompt para benefício próprio",
			}, "B", "segurança,vazamento,compliance"),
		open(model.ItemTypeOpenEnded,
			"Explique a importância da transparência ao usar IA em decisões que afetam pessoas (ex: crédito, contratação).",
			"Ética, Segurança & Compliance", 2, 0.7,
			map[string]string{
				"relevancia": "Aborda transparência e explicabilidade",
				"precisao":   "Menciona direitos ou regulamentação (LGPD, etc)",
				"completude": "Explica impacto em confiança ou justiça",
			}, "ética,transparência,regulamentação"),

		// ─── Produto e Negócio com IA ──────────────────────────────────
		choice(model.ItemTypeMCQ,
			"Ao desenvolver um produto com IA, qual pergunta de negócio é mais relevante?",
			"Produto e Negócio com IA", 1, 0.7,
			[4]string{
				"Qual é o modelo de IA mais avançado disponível?",
				"Qual problema real do cliente estamos resolvendo?",
				"Quantos parâmetros tem o modelo?",
				"Qual linguagem de programação é mais moderna?",
			}, "B", "produto,negócio,estratégia"),
		choice(model.ItemTypeScenario,
			"Como você mediria o ROI de uma iniciativa de IA em customer support?",
			"Produto e Negócio com IA", 2, 0.7,
			[4]string{
				"Contar número de modelos usados",
				"Medir redução de tempo de resposta, custos e satisfação do cliente",
				"Ver quantas linhas de código foram escritas",
				"Apenas observar se \"parece melhor\"",
			}, "B", "produto,roi,métricas"),
		open(model.ItemTypeOpenEnded,
			"Descreva como você validaria se uma funcionalidade de IA agrega valor real antes de lançá-la.",
			"Produto e Negócio com IA", 2, 0.6,
			map[string]string{
				"relevancia": "Menciona testes com usuários ou métricas",
				"precisao":   "Descreve processo de validação estruturado",
				"completude": "Considera feedback e iteração",
			}, "produto,validação,mvp"),
		choice(model.ItemTypeMCQ,
			"Qual métrica NÃO é relevante para avaliar o impacto de negócio de IA?",
			"Produto e Negócio com IA", 1, 0.8,
			[4]string{
				"Tempo de resposta médio",
				"Satisfação do usuário (NPS/CSAT)",
				"Número de neurônios na rede",
				"Redução de custos operacionais",
			}, "C", "produto,métricas,negócio"),

		// ─── Code/No-code para IA ──────────────────────────────────────
		choice(model.ItemTypeMCQ,
			"Qual plataforma no-code/low-code permite criar workflows com IA generativa facilmente?",
			"Code/No-code para IA", 1, 0.6,
			[4]string{
				"Zapier com integração OpenAI",
				"Microsoft Excel sem plugins",
				"Bloco de notas",
				"Paint",
			}, "A", "nocode,ferramentas,automação"),
		choice(model.ItemTypeScenario,
			"Você quer prototipar um chatbot sem programar. Qual abordagem é viável?",
			"Code/No-code para IA", 1, 0.7,
			[4]string{
				"Usar plataformas como Voiceflow ou Botpress",
				"Escrever tudo em Assembly",
				"Apenas sonhar com o chatbot",
				"Esperar alguém fazer para você",
			}, "A", "nocode,chatbot,prototipagem"),
		open(model.ItemTypeOpenEnded,
			"Descreva uma situação onde usar no-code para IA seria mais eficiente do que desenvolver código do zero.",
			"Code/No-code para IA", 1, 0.6,
			map[string]string{
				"relevancia": "Identifica caso de uso apropriado",
				"precisao":   "Justifica eficiência (tempo, recursos)",
				"completude": "Compara com desenvolvimento tradicional",
			}, "nocode,eficiência,casos-de-uso"),
		choice(model.ItemTypeMCQ,
			"Qual é uma limitação comum de ferramentas no-code para IA?",
			"Code/No-code para IA", 2, 0.8,
			[4]string{
				"São sempre gratuitas",
				"Customização limitada para casos muito específicos",
				"Funcionam offline sem internet",
				"Não precisam de dados",
			}, "B", "nocode,limitações,trade-offs"),

		// ─── LLMOps & Qualidade ────────────────────────────────────────
		choice(model.ItemTypeMCQ,
			"O que significa \"LLMOps\"?",
			"LLMOps & Qualidade", 1, 0.8,
			[4]string{
				"Operacionalização e gestão de Large Language Models",
				"Linguagem de programação para IA",
				"Sistema operacional para servidores",
				"Limpeza de dados",
			}, "A", "llmops,conceitos,operações"),
		choice(model.ItemTypeMCQ,
			"Qual prática é fundamental em LLMOps para garantir qualidade contínua?",
			"LLMOps & Qualidade", 2, 0.7,
			[4]string{
				"Nunca monitorar outputs após deploy",
				"Implementar logging, monitoring e evaluation loops",
				"Usar sempre o mesmo prompt sem testar",
				"Ignorar feedback dos usuários",
			}, "B", "llmops,monitoramento,qualidade"),
		choice(model.ItemTypeScenario,
			"Você detecta degradação na qualidade das respostas do seu LLM em produção. O que fazer?",
			"LLMOps & Qualidade", 2, 0.8,
			[4]string{
				"Ignorar e esperar melhorar sozinho",
				"Investigar logs, analisar exemplos ruins, ajustar prompts ou modelo",
				"Desligar o sistema imediatamente",
				"Culpar os usuários",
			}, "B", "llmops,troubleshooting,produção"),
		open(model.ItemTypeOpenEnded,
			"Explique a importância de versionar prompts e manter histórico de mudanças em sistemas de IA.",
			"LLMOps & Qualidade", 2, 0.6,
			map[string]string{
				"relevancia": "Aborda controle de versão e rastreabilidade",
				"precisao":   "Menciona debugging ou rollback",
				"completude": "Explica impacto em qualidade ou confiabilidade",
			}, "llmops,versionamento,governança"),
	}
}

func matrixItems() []*model.Item {
	return []*model.Item{
		// ─── Percepção e Atitude ───────────────────────────────────────
		matrixItem(
			"Como você se sente em relação ao avanço da IA no seu trabalho?",
			"Percepção e Atitude",
			[4]string{
				"Prefiro manter distância, a IA me deixa desconfortável",
				"Tenho curiosidade, mas ainda não explorei muito",
				"Vejo a IA como uma aliada e procuro entender onde ajuda",
				"Busco ativamente formas de usar IA para ampliar meu impacto",
			}),
		matrixItem(
			"Quando surge uma nova ferramenta de IA na sua área, qual é a sua reação?",
			"Percepção e Atitude",
			[4]string{
				"Espero que outras pessoas testem primeiro",
				"Leio sobre ela, mas raramente experimento",
				"Experimento quando vejo um benefício claro",
				"Testo logo e compartilho o que aprendi com colegas",
			}),
		matrixItem(
			"Como você enxerga o impacto da IA na sua carreira nos próximos anos?",
			"Percepção e Atitude",
			[4]string{
				"Como uma ameaça que prefiro não pensar a respeito",
				"Como algo distante que ainda não me afeta",
				"Como uma mudança que exige atualização contínua",
				"Como uma oportunidade que já estou aproveitando",
			}),

		// ─── Uso Prático ───────────────────────────────────────────────
		matrixItem(
			"Com que frequência você usa ferramentas de IA nas suas tarefas de trabalho?",
			"Uso Prático",
			[4]string{
				"Nunca ou quase nunca",
				"Algumas vezes por mês, em tarefas pontuais",
				"Algumas vezes por semana, já faz parte da rotina",
				"Diariamente, integrada aos meus fluxos de trabalho",
			}),
		matrixItem(
			"Quando você usa um assistente de IA, como costuma formular os pedidos?",
			"Uso Prático",
			[4]string{
				"Escrevo uma pergunta curta e aceito a primeira resposta",
				"Reescrevo o pedido quando a resposta não ajuda",
				"Dou contexto e exemplos para orientar a resposta",
				"Estruturo prompts com papel, formato e critérios de qualidade",
			}),
		matrixItem(
			"Como você lida com tarefas repetitivas que poderiam ser automatizadas?",
			"Uso Prático",
			[4]string{
				"Faço tudo manualmente, como sempre fiz",
				"Penso em automatizar, mas não sei por onde começar",
				"Já automatizei algumas com ajuda de IA ou scripts",
				"Mapeio processos e crio automações com IA regularmente",
			}),

		// ─── Conhecimento e Entendimento ───────────────────────────────
		matrixItem(
			"Qual é o seu nível de entendimento sobre como modelos de linguagem funcionam?",
			"Conhecimento e Entendimento",
			[4]string{
				"Não sei como funcionam por dentro",
				"Conheço conceitos básicos, como treinamento com dados",
				"Entendo noções de tokens, contexto e limitações dos modelos",
				"Entendo arquitetura, ajuste fino e técnicas como RAG",
			}),
		matrixItem(
			"Até que ponto você reconhece as limitações e riscos das respostas de IA?",
			"Conhecimento e Entendimento",
			[4]string{
				"Assumo que as respostas estão corretas",
				"Sei que podem errar, mas raramente verifico",
				"Verifico informações importantes em outras fontes",
				"Avalio vieses, alucinações e adapto o uso ao risco da tarefa",
			}),

		// ─── Cultura e Autonomia Digital ───────────────────────────────
		matrixItem(
			"Como você se mantém atualizado sobre novidades em IA?",
			"Cultura e Autonomia Digital",
			[4]string{
				"Não acompanho novidades de IA",
				"Vejo notícias quando aparecem nas minhas redes",
				"Sigo fontes específicas e leio com regularidade",
				"Acompanho ativamente, faço cursos e testo lançamentos",
			}),
		matrixItem(
			"Qual é o seu papel na adoção de IA no seu time ou empresa?",
			"Cultura e Autonomia Digital",
			[4]string{
				"Não participo dessas discussões",
				"Acompanho as decisões tomadas por outras pessoas",
				"Contribuo com sugestões e testes quando solicitado",
				"Lidero iniciativas e ajudo colegas a adotar IA com critério",
			}),
	}
}

package prompts

// locales maps locale -> group -> key -> template. Templates use $var
// placeholders expanded by Registry.Get.
var locales = map[string]map[string]map[string]string{
	"en": {
		GroupRAG: {
			"system_prompt": "You are an assistant that generates responses for the user.\n" +
				"You will be given a set of documents related to the user's query.\n" +
				"You must generate a response based on the provided documents.\n" +
				"You may apologize to the user if you cannot generate a response.\n" +
				"You must respond in the same language as the user's query.\n" +
				"Be polite and respectful when interacting with the user.\n" +
				"Be accurate and concise in your response. Avoid unnecessary details.",

			"document_prompt": "## Document Number: $doc_num\n" +
				"### Content: $chunk_text\n" +
				"### Metadata: $chunk_metadata",

			"footer_prompt": "Based only on the documents above and its metadata, please generate an answer for the user.\n" +
				"## Question:\n" +
				"$query\n" +
				"\n" +
				"## Answer:",

			"multi_query_system_prompt": "You are an assistant that generates multiple search queries for a user's query.\n" +
				"Return a list of concise search queries that are relevant to the user's query.",

			"multi_query_document_prompt": "You are given the user's query below.\n" +
				"Generate $num_queries search queries that are relevant to the user's query.\n\n" +
				"User's Query: $user_query",

			"multi_query_footer_prompt": "### Return the list of queries below:\n-",
		},
		GroupSummarizer: {
			"system_prompt": "You are an assistant that generates concise and accurate summaries.\n" +
				"You will be provided with text of a research paper.\n" +
				"Your task is to summarize the content clearly, accurately and easy to understand.",

			"map_prompt": "Summarize the following section content in a concise manner.\n" +
				"If the section content is very short to summarize, return it as is.\n" +
				"If the section contains researchers data, please restructure it in a clear format.\n" +
				"Avoid adding any information not present in the section content.\n" +
				"## Section Content: $text",

			"reduce_prompt": "Merge the following section summaries into a coherent paper summary.\n" +
				"Make sure the final summary is in markdown format and keep section distinctions clear.\n\n" +
				"## Summarized Sections: $sections",

			"footer_prompt": "## Summary:",
		},
		GroupExplainer: {
			"system_prompt": "You are an expert educator who explains complex concepts in simple, easy-to-understand terms.\n" +
				"Provide a detailed technical explanation of the text, including technical concepts, and in-depth analysis.\n" +
				"Use clear examples and analogies to illustrate key points.",

			"document_prompt": "Explain the following text in detail:\n$text",

			"document_prompt_with_context": "Explain the following text in detail, using the provided context to enhance the explanation:\n" +
				"Context: $context\n" +
				"Text: $text",

			"footer_prompt": "Explained text: ",
		},
		GroupTranslator: {
			"system_prompt": "You are a helpful assistant for translating text\n" +
				"You will translate the provided text to the target language\n" +
				"Make sure you will return the translated text only",

			"document_prompt": "The text will be translated: $text\n" +
				"The target language: $target_language",

			"footer_prompt": "The translated text: ",
		},
	},
}

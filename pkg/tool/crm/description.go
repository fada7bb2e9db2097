package crm

const descSearchOrCreateCompany = `Search for an existing company by name or create a new one if not found.
Use this FIRST when the user mentions a company/organization to ensure we don't create duplicates.
Returns the company ID for use in subsequent operations (creating contacts, deals).
If a company with a similar name exists, it will be returned instead of creating a duplicate.`

const descSearchOrCreateContact = `Search for an existing contact by name/email or create a new one if not found.
Use this after finding/creating a company to add or find the person mentioned.
If a contact with the same email exists, it will be returned instead of creating a duplicate.
You can provide either company_id (if known) or company_name (which will look up the company).`

const descCreateDeal = `Create a new deal/opportunity in the CRM pipeline.
Use this when the user mentions a potential deal, opportunity, or sales value.
The deal will be created in the current board's first stage by default.`

const descCreateTask = `Create a follow-up task for a contact.
Use this when the user mentions needing to follow up, call, email, or take action regarding a contact.
Use the contact_id from search_or_create_contact.
Common task types: 'Follow-up call', 'Send email', 'Schedule meeting', 'Send proposal'.`

const descCreateNote = `Create a note attached to a contact or deal.
Use this to log meeting notes, conversation summaries, or important information about interactions.
Provide exactly one of contact_id or deal_id.
Notes are timestamped and attributed to the current user.`
